// Package httpapi exposes the read-only REST and websocket surface: events,
// markets, latest odds and recent alerts out of the snapshot store, with a
// Redis read-through cache in front of the odds query.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/oddswatch/odds-arb-platform/internal/alerts"
	"github.com/oddswatch/odds-arb-platform/internal/odds-api/cache"
	"github.com/oddswatch/odds-arb-platform/internal/odds-api/dto"
	"github.com/oddswatch/odds-arb-platform/internal/odds-api/repo"
	"github.com/oddswatch/odds-arb-platform/internal/odds-api/ws"
)

const oddsCacheTTL = 30 * time.Second

type API struct {
	ReadRepo *repo.ReadRepo
	Cache    *cache.Cache
	Hub      *ws.Hub
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/v1/events", a.listEvents)
	r.Get("/v1/events/{id}/markets", a.listMarkets)
	r.Get("/v1/events/{id}/odds", a.getOdds)
	r.Get("/v1/alerts", a.listAlerts)
	r.Get("/ws", a.Hub.HandleWS)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	ev, err := a.ReadRepo.ListEvents(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if ev == nil {
		ev = []dto.Event{}
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mk, err := a.ReadRepo.ListMarkets(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if mk == nil {
		mk = []dto.Market{}
	}
	writeJSON(w, http.StatusOK, mk)
}

func (a *API) getOdds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fromCache []dto.Odds
	if ok, _ := a.Cache.GetOdds(r.Context(), id, &fromCache); ok {
		writeJSON(w, http.StatusOK, fromCache)
		return
	}

	od, err := a.ReadRepo.GetOddsByEvent(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(od) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	_ = a.Cache.SetOdds(r.Context(), id, od, oddsCacheTTL)
	writeJSON(w, http.StatusOK, od)
}

func (a *API) listAlerts(w http.ResponseWriter, r *http.Request) {
	recent, err := a.Cache.RecentAlerts(r.Context(), alerts.RecentKey, 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if recent == nil {
		recent = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, recent)
}
