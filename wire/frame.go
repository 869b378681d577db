// Package wire implements the bit-exact binary framing protocol the
// matching engine speaks: every frame is a big-endian [u32 length][payload],
// and the first byte of every payload is a type tag.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// MaxFrameSize is the largest payload the protocol accepts; larger frames
// are refused at the framing boundary.
const MaxFrameSize = 10 * 1024 * 1024 // 10 MiB

// ErrFrameTooLarge is returned by WriteFrame/ReadFrame when a payload
// exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("wire: frame exceeds 10 MiB limit")

// ErrShortPayload is returned by a Decode function when its payload is
// too small for the message type it claims to be.
var ErrShortPayload = errors.New("wire: payload too short for message type")

// ErrUnknownType identifies a payload whose leading type byte does not
// match any known message type. No function in this package returns it:
// the Decode functions do not check the type tag.
var ErrUnknownType = errors.New("wire: unknown message type")

// Type is the one-byte tag that opens every frame payload.
type Type uint8

// Message type tags, per §6. World→Engine: NewOrder, Cancel.
// Engine→World: Trade, Ack, Tob, L2Update, PnLUpdate.
const (
	TypeNewOrder  Type = 1
	TypeCancel    Type = 2
	TypeTrade     Type = 3
	TypeAck       Type = 4
	TypeTob       Type = 5
	TypeL2Update  Type = 6
	TypePnLUpdate Type = 7
)

// WriteFrame writes payload as a single [u32 length][payload] frame.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one [u32 length][payload] frame, rejecting anything
// over MaxFrameSize before attempting to read the payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// PeekType returns the leading type tag of a payload.
func PeekType(payload []byte) (Type, error) {
	if len(payload) < 1 {
		return 0, ErrShortPayload
	}
	return Type(payload[0]), nil
}

func putU64(buf []byte, v uint64) { binary.BigEndian.PutUint64(buf, v) }
func getU64(buf []byte) uint64    { return binary.BigEndian.Uint64(buf) }

func putF64(buf []byte, v float64) { binary.BigEndian.PutUint64(buf, math.Float64bits(v)) }
func getF64(buf []byte) float64    { return math.Float64frombits(getU64(buf)) }

func binary32(buf []byte, v uint32) { binary.BigEndian.PutUint32(buf, v) }
func unbinary32(buf []byte) uint32  { return binary.BigEndian.Uint32(buf) }
