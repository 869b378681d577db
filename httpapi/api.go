// Package httpapi exposes read-only admin/observability endpoints over
// the order book and top-of-book using chi, with the same request
// hygiene stack and RFC7807-shaped error bodies the rest of this
// codebase's HTTP surface uses. It never accepts orders — submission
// only happens through the framed TCP transport (netserver).
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hackingsage/Quant-Trading-Simulator/engine"
	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
)

// levelResponse mirrors one aggregated price level.
type levelResponse struct {
	Price    float64 `json:"price"`
	Quantity uint64  `json:"quantity"`
}

type bookResponse struct {
	Bids []levelResponse `json:"bids"`
	Asks []levelResponse `json:"asks"`
}

type tobResponse struct {
	HasBid   bool    `json:"has_bid"`
	BidPrice float64 `json:"bid_price"`
	BidQty   uint64  `json:"bid_qty"`
	HasAsk   bool    `json:"has_ask"`
	AskPrice float64 `json:"ask_price"`
	AskQty   uint64  `json:"ask_qty"`
}

// NewRouter builds the chi router for server.
func NewRouter(server *matchserver.MatchingServer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(3 * time.Second))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "not_found", "no such route")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/book", func(w http.ResponseWriter, r *http.Request) {
		snap := server.Snapshot()
		resp := bookResponse{
			Bids: toLevels(snap.Bids),
			Asks: toLevels(snap.Asks),
		}
		writeJSON(w, r, http.StatusOK, resp)
	})

	r.Get("/tob", func(w http.ResponseWriter, r *http.Request) {
		tob := server.Snapshot().Tob
		resp := tobResponse{
			HasBid:   tob.HasBid,
			BidPrice: tob.BidPrice,
			BidQty:   tob.BidQty,
			HasAsk:   tob.HasAsk,
			AskPrice: tob.AskPrice,
			AskQty:   tob.AskQty,
		}
		writeJSON(w, r, http.StatusOK, resp)
	})

	return r
}

func toLevels(in []engine.Level) []levelResponse {
	out := make([]levelResponse, len(in))
	for i, l := range in {
		out[i] = levelResponse{Price: l.Price, Quantity: l.Qty}
	}
	return out
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	reqID := middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, title, detail string) {
	reqID := middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":      title,
		"status":     code,
		"detail":     detail,
		"instance":   r.URL.Path,
		"request_id": reqID,
	})
}
