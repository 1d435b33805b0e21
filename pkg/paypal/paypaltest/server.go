// Package paypaltest serves the handful of PayPal REST endpoints the
// storefront calls so tests can run against a real SDK client.
package paypaltest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Order is a canned order returned by GET /v2/checkout/orders/{id}.
type Order struct {
	Status   string
	Amount   string
	Currency string
}

// Server is an httptest.Server with mutable behaviour.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	orders     map[string]Order
	rejectAuth bool
	delay      time.Duration
	tokenCalls int
	created    int
}

func NewServer() *Server {
	s := &Server{orders: map[string]Order{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) AddOrder(id string, order Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id] = order
}

// RejectAuth makes the token endpoint answer 401.
func (s *Server) RejectAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAuth = true
}

// Delay holds every response for d.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *Server) TokenCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delay := s.delay
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/oauth2/token":
		s.token(w)
	case r.Method == http.MethodPost && r.URL.Path == "/v2/checkout/orders":
		s.create(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/capture"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v2/checkout/orders/"), "/capture")
		s.capture(w, id)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v2/checkout/orders/"):
		s.get(w, strings.TrimPrefix(r.URL.Path, "/v2/checkout/orders/"))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND")
	}
}

func (s *Server) token(w http.ResponseWriter) {
	s.mu.Lock()
	s.tokenCalls++
	reject := s.rejectAuth
	s.mu.Unlock()
	if reject {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "Client Authentication failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": "test-token",
		"token_type":   "Bearer",
		"expires_in":   32400,
	})
}

func (s *Server) get(w http.ResponseWriter, id string) {
	s.mu.Lock()
	order, ok := s.orders[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, orderBody(id, order))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PurchaseUnits []struct {
			Amount struct {
				Currency string `json:"currency_code"`
				Value    string `json:"value"`
			} `json:"amount"`
		} `json:"purchase_units"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.PurchaseUnits) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	s.mu.Lock()
	s.created++
	id := fmt.Sprintf("PAYPAL-%04d", s.created)
	order := Order{Status: "CREATED", Amount: req.PurchaseUnits[0].Amount.Value, Currency: req.PurchaseUnits[0].Amount.Currency}
	s.orders[id] = order
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, orderBody(id, order))
}

func (s *Server) capture(w http.ResponseWriter, id string) {
	s.mu.Lock()
	order, ok := s.orders[id]
	if ok {
		order.Status = "COMPLETED"
		s.orders[id] = order
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     id,
		"status": "COMPLETED",
		"payer": map[string]any{
			"email_address": "buyer@example.com",
			"payer_id":      "PAYER123",
		},
	})
}

func orderBody(id string, order Order) map[string]any {
	currency := order.Currency
	if currency == "" {
		currency = "USD"
	}
	return map[string]any{
		"id":     id,
		"status": order.Status,
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": map[string]any{"currency_code": currency, "value": order.Amount},
		}},
	}
}

func writeError(w http.ResponseWriter, status int, name string) {
	writeJSON(w, status, map[string]any{"name": name, "message": strings.ToLower(name)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
