package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kofin/finboard/internal/clients/dart"
	"github.com/kofin/finboard/internal/models"
	"github.com/kofin/finboard/internal/services/corp"
)

// routeCorps dispatches /api/corps/{symbol} and its sub-resources.
func (s *Server) routeCorps(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/financials"):
		s.handleCorpFinancials(w, r)
	case strings.HasSuffix(r.URL.Path, "/filings"):
		s.handleCorpFilings(w, r)
	default:
		s.handleCorpCompany(w, r)
	}
}

func (s *Server) handleCorpCompany(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/corps/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing symbol")
		return
	}

	detail, err := s.app.CorpService.Company(r.Context(), symbol)
	if err != nil {
		s.writeCorpError(w, symbol, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCorpFinancials(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/corps/", "/financials")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing symbol")
		return
	}

	query := r.URL.Query()
	period, err := s.app.CorpService.Financials(r.Context(), symbol, query.Get("year"), query.Get("report"))
	if err != nil {
		s.writeCorpError(w, symbol, err)
		return
	}
	if period == nil {
		WriteError(w, http.StatusNotFound, "No financial report for the requested period")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"financial": period})
}

func (s *Server) handleCorpFilings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/corps/", "/filings")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing symbol")
		return
	}

	count, ok := positiveIntQuery(w, r, "count", 0)
	if !ok {
		return
	}
	query := r.URL.Query()
	filings, err := s.app.CorpService.Filings(r.Context(), symbol, dart.FilingQuery{
		From:  query.Get("from"),
		To:    query.Get("to"),
		Type:  query.Get("type"),
		Count: count,
	})
	if err != nil {
		s.writeCorpError(w, symbol, err)
		return
	}
	if filings == nil {
		filings = []models.FilingRecord{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"filings": filings})
}

func (s *Server) writeCorpError(w http.ResponseWriter, symbol string, err error) {
	switch {
	case errors.Is(err, corp.ErrNoCredential):
		WriteError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, corp.ErrUnknownSymbol):
		WriteError(w, http.StatusNotFound, "Unknown symbol: "+symbol)
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
