package http

import (
	"net/http"
	"strconv"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request, userID string) {
	payments, err := s.plans.ListPayments(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []core.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request, userID string) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.plans.CreatePayment(r.Context(), userID, req.toPayment())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/payments/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := s.plans.GetPayment(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request, userID string) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.plans.UpdatePayment(r.Context(), userID, r.PathValue("id"), req.toPayment())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.plans.DeletePayment(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request, userID string) {
	installments, err := s.plans.Schedule(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if installments == nil {
		installments = []core.Installment{}
	}
	writeJSON(w, http.StatusOK, installments)
}

// handleTogglePaid flips one installment and returns the updated payment.
func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request, userID string) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, r, badRequest("installment index must be an integer"))
		return
	}

	p, err := s.plans.TogglePaid(r.Context(), userID, r.PathValue("id"), index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
