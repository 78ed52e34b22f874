package api

import (
	"io"
	"net/http"
)

// maxCallbackBody bounds the STK callback payload.
const maxCallbackBody = 1 << 20

func (s *Server) routePayments(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payments/subscribe", s.authed(s.handleSubscribe))
	mux.HandleFunc("POST /api/payments/callback", s.handleCallback)
	mux.HandleFunc("GET /api/payments/{id}/status", s.optional(s.handlePaymentStatusByID))
	mux.HandleFunc("POST /api/payments/{id}/simulate", s.optional(s.handleSimulatePayment))
}

type subscribeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.svc.Payments.Subscribe(r.Context(), userFrom(r.Context()), req.PhoneNumber)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, signupResponse{
		TransactionID: p.ID,
		Status:        p.Status,
		Message:       "Check your phone to complete the subscription payment.",
	})
}

type callbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// handleCallback always acknowledges so the gateway stops retrying;
// processing failures are logged.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		s.logger.Error("reading payment callback", "error", err)
	} else if err := s.svc.Payments.HandleCallback(r.Context(), body); err != nil {
		s.logger.Error("processing payment callback", "error", err)
	}
	writeJSON(w, http.StatusOK, callbackAck{ResultCode: 0, ResultDesc: "Accepted"})
}

func (s *Server) handlePaymentStatusByID(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Payments.Status(r.Context(), r.PathValue("id"), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
