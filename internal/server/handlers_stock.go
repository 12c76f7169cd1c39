package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kofin/finboard/internal/models"
)

// routeStocks dispatches /api/stocks/{symbol} and /api/stocks/{symbol}/chart.
func (s *Server) routeStocks(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/stocks/")
	if strings.HasSuffix(rest, "/chart") {
		s.handleStockChart(w, r)
		return
	}
	s.handleStockDetail(w, r)
}

func (s *Server) handleStockList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stocks, source := s.app.StockService.ListAll(r.Context())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stocks": stocks,
		"count":  len(stocks),
		"source": source,
	})
}

func (s *Server) handleStockSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query, ok := RequireQuery(w, r, "q")
	if !ok {
		return
	}

	results := s.app.StockService.Search(r.Context(), query, 15)
	if results == nil {
		results = []models.Instrument{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/stocks/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing symbol")
		return
	}

	detail := s.app.StockService.GetStock(r.Context(), symbol)
	if detail == nil {
		WriteError(w, http.StatusNotFound, "Unknown symbol: "+symbol)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/stocks/", "/chart")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing symbol")
		return
	}

	period := models.ChartPeriod(r.URL.Query().Get("period"))
	switch period {
	case "":
		period = models.ChartDay
	case models.ChartDay, models.ChartWeek, models.ChartMonth, models.ChartYear:
	default:
		WriteError(w, http.StatusBadRequest, "Invalid period, expected day|week|month|year")
		return
	}

	count := 90
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "Invalid count")
			return
		}
		count = parsed
	}

	candles := s.app.StockService.GetChart(r.Context(), symbol, period, count)
	if candles == nil {
		candles = []models.Candle{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"period": period,
		"chart":  candles,
	})
}
