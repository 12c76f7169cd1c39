package server

import (
	"net/http"

	"github.com/kofin/finboard/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Stocks
	mux.HandleFunc("/api/stocks/search", s.handleStockSearch)
	mux.HandleFunc("/api/stocks/", s.routeStocks)
	mux.HandleFunc("/api/stocks", s.handleStockList)

	// Market
	mux.HandleFunc("/api/market/overview", s.handleMarketOverview)
	mux.HandleFunc("/api/market/ranking", s.handleMarketRanking)
	mux.HandleFunc("/api/market/short-selling", s.handleShortSelling)

	// Corporate registry
	mux.HandleFunc("/api/corps/", s.routeCorps)

	// Macro
	mux.HandleFunc("/api/macro", s.handleMacroCategory)
	mux.HandleFunc("/api/macro/history", s.handleMacroHistory)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
