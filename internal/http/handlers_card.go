package http

import (
	"net/http"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request, userID string) {
	cards, err := s.plans.ListCards(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cards == nil {
		cards = []core.CreditCard{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request, userID string) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.plans.CreateCard(r.Context(), userID, req.toCard())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/cards/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.plans.DeleteCard(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUtilization(w http.ResponseWriter, r *http.Request, userID string) {
	u, err := s.plans.Utilization(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
