// Package carriertest provides an in-process fake of the carrier API for tests.
package carriertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

type Courier struct {
	Name string
	Rate float64
	ETD  string
}

// Server records every call and answers with the configured behaviour.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	Token              string
	Couriers           []Courier
	ServiceabilityCode int
	CreateOrderCode    int
	AWBFails           bool
	OmitShipmentID     bool
	RejectTokens       map[string]bool

	Logins            int
	ServiceabilityHit int
	OrdersCreated     int
	AWBAssigns        int
	TrackHits         int
	lastQuery         map[string]string
	lastOrder         map[string]any
}

func NewServer() *Server {
	s := &Server{
		Token:        "token-1",
		RejectTokens: map[string]bool{},
		lastQuery:    map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", s.login)
	mux.HandleFunc("/v1/external/courier/serviceability/", s.serviceability)
	mux.HandleFunc("/v1/external/orders/create/adhoc", s.createOrder)
	mux.HandleFunc("/v1/external/courier/assign/awb", s.assignAWB)
	mux.HandleFunc("/v1/external/courier/track/awb/", s.track)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || s.RejectTokens[token] {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token has expired"}`))
		return false
	}
	return true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Logins++
	token := s.Token
	if s.Logins > 1 {
		token = fmt.Sprintf("%s-%d", s.Token, s.Logins)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (s *Server) serviceability(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authorized(w, r) {
		return
	}
	s.ServiceabilityHit++
	for key := range r.URL.Query() {
		s.lastQuery[key] = r.URL.Query().Get(key)
	}
	if s.ServiceabilityCode != 0 {
		w.WriteHeader(s.ServiceabilityCode)
		return
	}

	companies := make([]map[string]any, 0, len(s.Couriers))
	for i, c := range s.Couriers {
		companies = append(companies, map[string]any{
			"courier_company_id":      i + 1,
			"courier_name":            c.Name,
			"rate":                    c.Rate,
			"etd":                     c.ETD,
			"estimated_delivery_days": "3",
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": 200,
		"data":   map[string]any{"available_courier_companies": companies},
	})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authorized(w, r) {
		return
	}
	if s.CreateOrderCode != 0 {
		w.WriteHeader(s.CreateOrderCode)
		_, _ = w.Write([]byte(`{"message":"invalid pickup location"}`))
		return
	}
	s.OrdersCreated++
	s.lastOrder = map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&s.lastOrder)
	created := map[string]any{
		"order_id": 1000 + s.OrdersCreated,
		"status":   "NEW",
	}
	if !s.OmitShipmentID {
		created["shipment_id"] = 2000 + s.OrdersCreated
	}
	_ = json.NewEncoder(w).Encode(created)
}

func (s *Server) assignAWB(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authorized(w, r) {
		return
	}
	s.AWBAssigns++
	if s.AWBFails {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"awb_assign_status": 0,
			"message":           "wallet balance low",
		})
		return
	}

	var body struct {
		ShipmentID json.Number `json:"shipment_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"awb_assign_status": 1,
		"response": map[string]any{
			"data": map[string]any{
				"awb_code":           "AWB" + body.ShipmentID.String(),
				"courier_name":       "Delhivery Surface",
				"courier_company_id": 12,
			},
		},
	})
}

func (s *Server) track(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authorized(w, r) {
		return
	}
	s.TrackHits++
	awb := strings.TrimPrefix(r.URL.Path, "/v1/external/courier/track/awb/")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tracking_data": map[string]any{
			"track_status": 1,
			"shipment_track": []map[string]any{
				{"awb_code": awb, "current_status": "In Transit", "edd": "2026-10-20"},
			},
			"shipment_track_activities": []map[string]any{
				{"date": "2026-10-16 10:00:00", "status": "PICKED UP", "activity": "Shipment picked up", "location": "Delhi"},
			},
			"track_url": "https://shiprocket.co/tracking/" + awb,
		},
	})
}

// Counts returns a consistent snapshot of the call counters.
func (s *Server) Counts() (logins, quotes, orders, awbs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Logins, s.ServiceabilityHit, s.OrdersCreated, s.AWBAssigns
}

// Configure mutates the fake's behaviour under its lock.
func (s *Server) Configure(fn func(s *Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// LastQuery returns the query of the most recent serviceability call.
func (s *Server) LastQuery() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.lastQuery))
	for k, v := range s.lastQuery {
		out[k] = v
	}
	return out
}

// LastOrder returns the body of the most recent order creation.
func (s *Server) LastOrder() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOrder
}
