// provider-simulator serves a fake odds provider API for local development.
// It answers GET /sports/{sport}/odds with the same JSON shape as the real
// provider, drifting each bookmaker's prices between requests so scans have
// something to find. Roughly one response in five carries an arbitrage.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/oddswatch/odds-arb-platform/internal/pricing"
	"github.com/oddswatch/odds-arb-platform/internal/shared/config"
	"github.com/oddswatch/odds-arb-platform/internal/shared/logger"
	"github.com/oddswatch/odds-arb-platform/internal/shared/metrics"
)

var (
	requestsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_requests_total",
		Help: "odds requests served by sport",
	}, []string{"sport"})
	arbsInjected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_arbs_injected_total",
		Help: "responses carrying an injected arbitrage",
	})
)

type matchup struct {
	id   string
	home string
	away string
	// fair probability of the home side winning
	pHome float64
}

var catalog = []matchup{
	{id: "SIM_001", home: "Duke", away: "North Carolina", pHome: 0.55},
	{id: "SIM_002", home: "Kansas", away: "Gonzaga", pHome: 0.48},
	{id: "SIM_003", home: "Purdue", away: "Houston", pHome: 0.52},
	{id: "SIM_004", home: "Auburn", away: "Tennessee", pHome: 0.60},
}

var books = []string{"draftkings", "fanduel", "betmgm", "caesars"}

// outcomeJSON mirrors the provider response shape the ingest client decodes.
type outcomeJSON struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type marketJSON struct {
	Key      string        `json:"key"`
	Outcomes []outcomeJSON `json:"outcomes"`
}

type bookmakerJSON struct {
	Key     string       `json:"key"`
	Markets []marketJSON `json:"markets"`
}

type eventJSON struct {
	ID           string          `json:"id"`
	CommenceTime time.Time       `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []bookmakerJSON `json:"bookmakers"`
}

type simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	log *zap.Logger
}

// priceFor turns a probability plus bookmaker margin into american odds.
func (s *simulator) priceFor(p, margin float64) int {
	vigged := p * (1 + margin)
	if vigged >= 0.99 {
		vigged = 0.99
	}
	odds, err := pricing.DecimalToAmerican(1 / vigged)
	if err != nil {
		return -110
	}
	return odds
}

func (s *simulator) buildEvents() []eventJSON {
	s.mu.Lock()
	defer s.mu.Unlock()

	injectArb := s.rng.Float64() < 0.2
	if injectArb {
		arbsInjected.Inc()
	}

	out := make([]eventJSON, 0, len(catalog))
	for i, m := range catalog {
		// drift the fair probability a little per request
		p := m.pHome + (s.rng.Float64()-0.5)*0.04
		if p < 0.05 {
			p = 0.05
		}
		if p > 0.95 {
			p = 0.95
		}

		ev := eventJSON{
			ID:           m.id,
			CommenceTime: time.Now().Add(time.Duration(4+i) * time.Hour).UTC(),
			HomeTeam:     m.home,
			AwayTeam:     m.away,
		}

		for bi, book := range books {
			margin := 0.02 + s.rng.Float64()*0.03
			pHome, pAway := p, 1-p

			// one book shades each side the wrong way, producing a cross-book arb
			if injectArb && i == 0 {
				margin = -0.04
				if bi%2 == 0 {
					pHome -= 0.03
				} else {
					pAway -= 0.03
				}
			}

			ev.Bookmakers = append(ev.Bookmakers, bookmakerJSON{
				Key: book,
				Markets: []marketJSON{{
					Key: "h2h",
					Outcomes: []outcomeJSON{
						{Name: m.home, Price: s.priceFor(pHome, margin)},
						{Name: m.away, Price: s.priceFor(pAway, margin)},
					},
				}},
			})
		}
		out = append(out, ev)
	}
	return out
}

func (s *simulator) oddsHandler(w http.ResponseWriter, r *http.Request) {
	sport := chi.URLParam(r, "sport")
	requestsServed.WithLabelValues(sport).Inc()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.buildEvents())
	s.log.Debug("odds served", zap.String("sport", sport))
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	prometheus.MustRegister(requestsServed, arbsInjected)
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })

	sim := &simulator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: log,
	}

	r := chi.NewRouter()
	r.Get("/sports/{sport}/odds/", sim.oddsHandler)
	r.Get("/sports/{sport}/odds", sim.oddsHandler)

	addr := ":" + cfg.HTTPPort
	log.Info("provider-simulator listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}
