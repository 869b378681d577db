package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hackingsage/Quant-Trading-Simulator/matchserver"
	"github.com/hackingsage/Quant-Trading-Simulator/wire"
)

func TestHealthz(t *testing.T) {
	server := matchserver.New(matchserver.Config{PoolCapacity: 64})
	router := NewRouter(server)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("have: %d, want: %d", rec.Code, http.StatusNoContent)
	}
}

func TestBookReflectsRestingOrders(t *testing.T) {
	server := matchserver.New(matchserver.Config{PoolCapacity: 64})
	server.Start()
	defer server.Stop()
	router := NewRouter(server)

	if !server.SubmitNewOrder(wire.NewOrderMsg{UserID: 1, Side: 0, Price: 100, Quantity: 10}) {
		t.Fatal("SubmitNewOrder failed")
	}
	for i := 0; i < 2000 && server.Snapshot().OrderCount == 0; i++ {
		if _, ok := server.NextServerMessage(); !ok {
			time.Sleep(time.Millisecond)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/book", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("have: %d, want: %d", rec.Code, http.StatusOK)
	}
	var resp bookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(resp.Bids) != 1 || resp.Bids[0].Price != 100 || resp.Bids[0].Quantity != 10 {
		t.Fatalf("have: %+v", resp)
	}
}

func TestNotFoundReturnsProblemJSON(t *testing.T) {
	server := matchserver.New(matchserver.Config{PoolCapacity: 64})
	router := NewRouter(server)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("have: %d, want: %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("Content-Type: have %q", ct)
	}
}
