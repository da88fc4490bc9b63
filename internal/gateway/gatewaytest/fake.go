// Package gatewaytest provides an in-process fake of the payment gateway's order API.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

const (
	KeyID     = "rzp_test_key"
	KeySecret = "rzp_test_secret"
)

type Server struct {
	*httptest.Server

	mu      sync.Mutex
	fail    bool
	amounts []int64
}

func NewServer() *Server {
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/orders", s.createOrder)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, pass, ok := r.BasicAuth()
	if !ok || user != KeyID || pass != KeySecret {
		http.Error(w, `{"error":{"description":"Authentication failed"}}`, http.StatusUnauthorized)
		return
	}
	if s.fail {
		http.Error(w, `{"error":{"description":"service unavailable"}}`, http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.amounts = append(s.amounts, body.Amount)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":       fmt.Sprintf("order_test_%d", len(s.amounts)),
		"amount":   body.Amount,
		"currency": body.Currency,
		"receipt":  body.Receipt,
		"status":   "created",
	})
}

// SetFailing makes every order request answer 503.
func (s *Server) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Amounts returns the minor-unit amounts of every order created so far.
func (s *Server) Amounts() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.amounts...)
}
