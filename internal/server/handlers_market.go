package server

import (
	"net/http"
	"strconv"

	"github.com/kofin/finboard/internal/models"
)

func (s *Server) handleMarketOverview(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	overview := s.app.MarketService.Overview(r.Context())
	WriteJSON(w, http.StatusOK, overview)
}

func (s *Server) handleMarketRanking(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	sortBy := models.RankSort(r.URL.Query().Get("sort"))
	switch sortBy {
	case "":
		sortBy = models.RankByVolume
	case models.RankByVolume, models.RankByTradingValue:
	default:
		WriteError(w, http.StatusBadRequest, "Invalid sort, expected volume|trading_value")
		return
	}

	page, ok := positiveIntQuery(w, r, "page", 1)
	if !ok {
		return
	}
	size, ok := positiveIntQuery(w, r, "size", 20)
	if !ok {
		return
	}

	ranking := s.app.MarketService.Ranking(r.Context(), sortBy, page, size)
	WriteJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleShortSelling(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count, ok := positiveIntQuery(w, r, "count", 20)
	if !ok {
		return
	}

	list := s.app.MarketService.ShortSelling(r.Context(), count)
	WriteJSON(w, http.StatusOK, list)
}

// positiveIntQuery parses an optional positive integer query parameter,
// writing a 400 on garbage.
func positiveIntQuery(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		WriteError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return parsed, true
}
