package http

import (
	"net/http"
	"strings"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := s.plans.Summary(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	d, err := s.plans.Dashboard(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request, userID string) {
	settings, err := s.plans.GetSettings(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request, userID string) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.plans.SaveSettings(r.Context(), userID, req.toSettings())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

func handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	codes := core.KnownCurrencies()
	out := make([]currency, 0, len(codes))
	for _, code := range codes {
		out = append(out, currency{Code: code, Symbol: core.SymbolFor(code)})
	}
	writeJSON(w, http.StatusOK, out)
}

type formattedAmount struct {
	Code      string  `json:"code"`
	Symbol    string  `json:"symbol"`
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

// handleFormatAmount renders ?amount= in the currency named by the path.
// Unknown codes are formatted with the code itself as the symbol.
func (s *Server) handleFormatAmount(w http.ResponseWriter, r *http.Request) {
	code := sanitizeInput(r.PathValue("code"))
	raw := strings.TrimSpace(r.URL.Query().Get("amount"))
	if raw == "" {
		s.writeError(w, r, badRequest("missing amount query parameter"))
		return
	}

	v, err := core.ParseAmount(raw)
	if err != nil {
		s.writeError(w, r, &core.ValidationError{Field: "amount", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, formattedAmount{
		Code:      code,
		Symbol:    core.SymbolFor(code),
		Amount:    v,
		Formatted: core.FormatAmount(v, code),
	})
}
