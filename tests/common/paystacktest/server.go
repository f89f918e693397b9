//go:build unit || e2e

package paystacktest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const verifyPrefix = "/transaction/verify/"

// Transaction is what the fake processor reports for one reference.
type Transaction struct {
	Status   string
	Amount   int64
	Currency string
}

// Server is an in-process stand-in for the processor's verify endpoint.
// Unknown references answer with status:false.
type Server struct {
	*httptest.Server

	secret string
	calls  atomic.Int64

	mu   sync.RWMutex
	txns map[string]Transaction
}

func NewServer(t *testing.T, secret string) *Server {
	t.Helper()

	s := &Server{
		secret: secret,
		txns:   make(map[string]Transaction),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Set(reference string, txn Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[reference] = txn
}

// Succeed registers a successful NGN payment of amount minor units.
func (s *Server) Succeed(reference string, amount int64) {
	s.Set(reference, Transaction{Status: "success", Amount: amount, Currency: "NGN"})
}

func (s *Server) Calls() int64 {
	return s.calls.Load()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("Authorization") != "Bearer "+s.secret {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Invalid key"})
		return
	}
	if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, verifyPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	reference := strings.TrimPrefix(r.URL.Path, verifyPrefix)

	s.mu.RLock()
	txn, ok := s.txns[reference]
	s.mu.RUnlock()

	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Transaction reference not found"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  true,
		"message": "Verification successful",
		"data": map[string]any{
			"status":    txn.Status,
			"amount":    txn.Amount,
			"currency":  txn.Currency,
			"reference": reference,
			"channel":   "card",
		},
	})
}
