package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/congestiondb"
	"github.com/NotCoffee418/p1plus_monitor/pkg/ledstrip"
	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// SessionController is the part of session.Controller the API drives.
type SessionController interface {
	Start(ctx context.Context) error
	Stop()
	State() session.State
	Err() error
}

type EventLog interface {
	RecentEvents(limit int) ([]congestiondb.CongestionEvent, error)
}

type IndicatorState interface {
	Current() ledstrip.Color
}

// Hub keeps the latest update and broadcasts every update to the
// connected websocket clients.
type Hub struct {
	// WriteWait is the deadline for one write to a client.
	WriteWait time.Duration

	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]bool
	latest  *session.Update
}

// client serializes writes to one connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// DemoFlag is the demo toggle shared by the API and the read loop.
type DemoFlag struct {
	enabled atomic.Bool
}

type Options struct {
	Hub       *Hub
	Demo      *DemoFlag
	Session   SessionController
	Indicator IndicatorState
	// Events may be nil when the congestion log is disabled.
	Events   EventLog
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

type server struct {
	Options
	logger zerolog.Logger
}

type sessionStatus struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type demoRequest struct {
	Enabled *bool `json:"enabled"`
}

type demoStatus struct {
	Enabled bool `json:"enabled"`
}
