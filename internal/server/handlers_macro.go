package server

import (
	"errors"
	"net/http"

	"github.com/kofin/finboard/internal/models"
	"github.com/kofin/finboard/internal/services/macro"
)

func (s *Server) handleMacroCategory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	category, ok := RequireQuery(w, r, "category")
	if !ok {
		return
	}

	data, err := s.app.MacroService.Category(r.Context(), models.MacroCategory(category))
	if err != nil {
		s.writeMacroError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, data)
}

func (s *Server) handleMacroHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	source, ok := RequireQuery(w, r, "source")
	if !ok {
		return
	}
	seriesID := r.URL.Query().Get("series")

	points, err := s.app.MacroService.History(r.Context(), source, seriesID)
	if err != nil {
		s.writeMacroError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"source": source,
		"series": seriesID,
		"data":   points,
	})
}

func (s *Server) writeMacroError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, macro.ErrNoCredential):
		WriteError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, macro.ErrUnknownCategory),
		errors.Is(err, macro.ErrUnknownSource),
		errors.Is(err, macro.ErrUnknownSeries):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
