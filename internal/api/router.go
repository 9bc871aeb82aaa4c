package api

import (
	"context"

	"github.com/gorilla/mux"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
	"github.com/ArafathMohammed/Prosthetichand/internal/pipeline"
)

// StatsSource reports pipeline counters
type StatsSource interface {
	Stats() pipeline.Stats
}

// CycleSource returns persisted inference cycles, newest first
type CycleSource interface {
	RecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error)
}

// Check reports whether a dependency is reachable
type Check func(ctx context.Context) error

// NewRouter builds the status API. cycles may be nil when persistence is
// disabled. /health runs every check and reports 503 if any fails.
func NewRouter(stats StatsSource, cycles CycleSource, checks map[string]Check) *mux.Router {
	h := &handler{stats: stats, cycles: cycles, checks: checks}
	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods("GET")
	r.HandleFunc("/stats", h.getStats).Methods("GET")
	r.HandleFunc("/cycles", h.getRecentCycles).Methods("GET")

	return r
}
