package wire

// NewOrderMsg is the World→Engine NEW_ORDER payload (tag 1):
// u64 user_id, u8 side, f64 price, u64 quantity.
type NewOrderMsg struct {
	UserID   uint64
	Side     uint8 // 0 = buy, 1 = sell
	Price    float64
	Quantity uint64
}

const newOrderPayloadLen = 1 + 8 + 1 + 8 + 8

// EncodeNewOrder encodes m as a NEW_ORDER payload (including its type tag).
func EncodeNewOrder(m NewOrderMsg) []byte {
	buf := make([]byte, newOrderPayloadLen)
	buf[0] = byte(TypeNewOrder)
	putU64(buf[1:9], m.UserID)
	buf[9] = m.Side
	putF64(buf[10:18], m.Price)
	putU64(buf[18:26], m.Quantity)
	return buf
}

// DecodeNewOrder decodes a NEW_ORDER payload. payload must include the
// leading type tag.
func DecodeNewOrder(payload []byte) (NewOrderMsg, error) {
	if len(payload) < newOrderPayloadLen {
		return NewOrderMsg{}, ErrShortPayload
	}
	return NewOrderMsg{
		UserID:   getU64(payload[1:9]),
		Side:     payload[9],
		Price:    getF64(payload[10:18]),
		Quantity: getU64(payload[18:26]),
	}, nil
}

// CancelMsg is the World→Engine CANCEL payload (tag 2): u64 order_id.
type CancelMsg struct {
	OrderID uint64
}

const cancelPayloadLen = 1 + 8

// EncodeCancel encodes m as a CANCEL payload (including its type tag).
func EncodeCancel(m CancelMsg) []byte {
	buf := make([]byte, cancelPayloadLen)
	buf[0] = byte(TypeCancel)
	putU64(buf[1:9], m.OrderID)
	return buf
}

// DecodeCancel decodes a CANCEL payload. payload must include the leading
// type tag.
func DecodeCancel(payload []byte) (CancelMsg, error) {
	if len(payload) < cancelPayloadLen {
		return CancelMsg{}, ErrShortPayload
	}
	return CancelMsg{OrderID: getU64(payload[1:9])}, nil
}

// TradeMsg is the Engine→World TRADE payload (tag 3):
// u64 trade_id, buy_order_id, buy_user_id, sell_order_id, sell_user_id,
// f64 price, u64 quantity.
type TradeMsg struct {
	TradeID     uint64
	BuyOrderID  uint64
	BuyUserID   uint64
	SellOrderID uint64
	SellUserID  uint64
	Price       float64
	Quantity    uint64
}

const tradePayloadLen = 1 + 8*5 + 8 + 8

// EncodeTrade encodes m as a TRADE payload (including its type tag).
func EncodeTrade(m TradeMsg) []byte {
	buf := make([]byte, tradePayloadLen)
	buf[0] = byte(TypeTrade)
	putU64(buf[1:9], m.TradeID)
	putU64(buf[9:17], m.BuyOrderID)
	putU64(buf[17:25], m.BuyUserID)
	putU64(buf[25:33], m.SellOrderID)
	putU64(buf[33:41], m.SellUserID)
	putF64(buf[41:49], m.Price)
	putU64(buf[49:57], m.Quantity)
	return buf
}

// DecodeTrade decodes a TRADE payload. payload must include the leading
// type tag.
func DecodeTrade(payload []byte) (TradeMsg, error) {
	if len(payload) < tradePayloadLen {
		return TradeMsg{}, ErrShortPayload
	}
	return TradeMsg{
		TradeID:     getU64(payload[1:9]),
		BuyOrderID:  getU64(payload[9:17]),
		BuyUserID:   getU64(payload[17:25]),
		SellOrderID: getU64(payload[25:33]),
		SellUserID:  getU64(payload[33:41]),
		Price:       getF64(payload[41:49]),
		Quantity:    getU64(payload[49:57]),
	}, nil
}

// AckStatus values for AckMsg.Status.
const (
	AckOK  uint8 = 0
	AckErr uint8 = 1
)

// AckMsg is the Engine→World ACK payload (tag 4):
// u8 status, u8 ackType, u64 order_id.
type AckMsg struct {
	Status  uint8
	AckType Type // TypeNewOrder or TypeCancel
	OrderID uint64
}

const ackPayloadLen = 1 + 1 + 1 + 8

// EncodeAck encodes m as an ACK payload (including its type tag).
func EncodeAck(m AckMsg) []byte {
	buf := make([]byte, ackPayloadLen)
	buf[0] = byte(TypeAck)
	buf[1] = m.Status
	buf[2] = byte(m.AckType)
	putU64(buf[3:11], m.OrderID)
	return buf
}

// DecodeAck decodes an ACK payload. payload must include the leading type
// tag.
func DecodeAck(payload []byte) (AckMsg, error) {
	if len(payload) < ackPayloadLen {
		return AckMsg{}, ErrShortPayload
	}
	return AckMsg{
		Status:  payload[1],
		AckType: Type(payload[2]),
		OrderID: getU64(payload[3:11]),
	}, nil
}

// TobMsg is the Engine→World TOB payload (tag 5):
// f64 bid_price, u64 bid_qty, f64 ask_price, u64 ask_qty (zeros when a
// side is absent).
type TobMsg struct {
	BidPrice float64
	BidQty   uint64
	AskPrice float64
	AskQty   uint64
}

const tobPayloadLen = 1 + 8 + 8 + 8 + 8

// EncodeTob encodes m as a TOB payload (including its type tag).
func EncodeTob(m TobMsg) []byte {
	buf := make([]byte, tobPayloadLen)
	buf[0] = byte(TypeTob)
	putF64(buf[1:9], m.BidPrice)
	putU64(buf[9:17], m.BidQty)
	putF64(buf[17:25], m.AskPrice)
	putU64(buf[25:33], m.AskQty)
	return buf
}

// DecodeTob decodes a TOB payload. payload must include the leading type
// tag.
func DecodeTob(payload []byte) (TobMsg, error) {
	if len(payload) < tobPayloadLen {
		return TobMsg{}, ErrShortPayload
	}
	return TobMsg{
		BidPrice: getF64(payload[1:9]),
		BidQty:   getU64(payload[9:17]),
		AskPrice: getF64(payload[17:25]),
		AskQty:   getU64(payload[25:33]),
	}, nil
}

// L2UpdateMsg is the Engine→World L2_UPDATE payload (tag 6):
// u8 side (0=bid,1=ask), f64 price, u64 quantity (0 means "level gone").
type L2UpdateMsg struct {
	Side     uint8
	Price    float64
	Quantity uint64
}

const l2UpdatePayloadLen = 1 + 1 + 8 + 8

// EncodeL2Update encodes m as an L2_UPDATE payload (including its type
// tag).
func EncodeL2Update(m L2UpdateMsg) []byte {
	buf := make([]byte, l2UpdatePayloadLen)
	buf[0] = byte(TypeL2Update)
	buf[1] = m.Side
	putF64(buf[2:10], m.Price)
	putU64(buf[10:18], m.Quantity)
	return buf
}

// DecodeL2Update decodes an L2_UPDATE payload. payload must include the
// leading type tag.
func DecodeL2Update(payload []byte) (L2UpdateMsg, error) {
	if len(payload) < l2UpdatePayloadLen {
		return L2UpdateMsg{}, ErrShortPayload
	}
	return L2UpdateMsg{
		Side:     payload[1],
		Price:    getF64(payload[2:10]),
		Quantity: getU64(payload[10:18]),
	}, nil
}

// PnLUpdateMsg is the Engine→World PNL_UPDATE payload (tag 7):
// u32 user_id, f64 realized, unrealized, position, avg_price, equity.
//
// position is canonically f64 on the wire. There is exactly one decoder
// for this message and it always reads f64; a legacy u64 decoder for this
// field does not exist in this implementation (§9).
type PnLUpdateMsg struct {
	UserID     uint32
	Realized   float64
	Unrealized float64
	Position   float64
	AvgPrice   float64
	Equity     float64
}

const pnlUpdatePayloadLen = 1 + 4 + 8*5

// EncodePnLUpdate encodes m as a PNL_UPDATE payload (including its type
// tag).
func EncodePnLUpdate(m PnLUpdateMsg) []byte {
	buf := make([]byte, pnlUpdatePayloadLen)
	buf[0] = byte(TypePnLUpdate)
	binary32(buf[1:5], m.UserID)
	putF64(buf[5:13], m.Realized)
	putF64(buf[13:21], m.Unrealized)
	putF64(buf[21:29], m.Position)
	putF64(buf[29:37], m.AvgPrice)
	putF64(buf[37:45], m.Equity)
	return buf
}

// DecodePnLUpdate decodes a PNL_UPDATE payload. payload must include the
// leading type tag.
func DecodePnLUpdate(payload []byte) (PnLUpdateMsg, error) {
	if len(payload) < pnlUpdatePayloadLen {
		return PnLUpdateMsg{}, ErrShortPayload
	}
	return PnLUpdateMsg{
		UserID:     unbinary32(payload[1:5]),
		Realized:   getF64(payload[5:13]),
		Unrealized: getF64(payload[13:21]),
		Position:   getF64(payload[21:29]),
		AvgPrice:   getF64(payload[29:37]),
		Equity:     getF64(payload[37:45]),
	}, nil
}
