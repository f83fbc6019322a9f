package congestiondb

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/NotCoffee418/p1plus_monitor/pkg/congestion"
	"github.com/rs/zerolog"
)

var ErrMigrationFailed = errors.New("congestion db migration failed")

type CongestionEvent struct {
	ID           int64  `db:"id" json:"id"`
	Timestamp    int64  `db:"timestamp" json:"timestamp"`
	Identifier   string `db:"identifier" json:"identifier"`
	State        string `db:"state" json:"state"`
	ActiveLimits int    `db:"active_limits" json:"active_limits"`
	Message      string `db:"message" json:"message"`
	Demo         bool   `db:"demo" json:"demo"`
}

// Store is the congestion event log. Only actuation transitions are
// written, not every telegram.
type Store struct {
	db *sql.DB
}

// Recorder writes an event whenever the actuation state changes.
type Recorder struct {
	store  *Store
	logger zerolog.Logger

	mu   sync.Mutex
	seen bool
	last congestion.ActuationState
}
