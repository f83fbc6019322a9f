package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/checksum"
	"github.com/NotCoffee418/p1plus_monitor/pkg/congestion"
	"github.com/NotCoffee418/p1plus_monitor/pkg/obis"
	"github.com/NotCoffee418/p1plus_monitor/pkg/reading"
	"github.com/rs/zerolog"
)

type State uint8

const (
	Idle State = iota
	Reading
	Stopping
	// Failed means the byte stream ended with an error. Start must be called
	// again to resume.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case Stopping:
		return "stopping"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Update is delivered to the display once per validated telegram.
type Update struct {
	ReceivedAt time.Time         `json:"received_at"`
	Identifier string            `json:"identifier"`
	CurrentL1  int64             `json:"current_l1"`
	CurrentL2  int64             `json:"current_l2"`
	CurrentL3  int64             `json:"current_l3"`
	Limits     congestion.Record `json:"limits"`
	Curtailed  bool              `json:"curtailed"`
	Message    string            `json:"message"`
	Demo       bool              `json:"demo"`
	Reading    *reading.Reading  `json:"reading,omitempty"`
}

// State returns the actuation state the update implies.
func (u Update) State() congestion.ActuationState {
	if u.Curtailed {
		return congestion.Curtailed
	}
	return congestion.Normal
}

// SourceOpener opens the byte stream for a new session.
type SourceOpener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

type SourceOpenerFunc func(ctx context.Context) (io.ReadCloser, error)

func (f SourceOpenerFunc) Open(ctx context.Context) (io.ReadCloser, error) {
	return f(ctx)
}

type Display interface {
	Show(update Update)
}

// Displays fans an update out to every display in order.
type Displays []Display

type Actuator interface {
	Show(state congestion.ActuationState) error
	Off() error
}

type DemoToggle interface {
	DemoEnabled() bool
}

// Observer is told about every framed telegram, valid or not.
type Observer interface {
	ObserveTelegram(result checksum.Result)
}

type Options struct {
	Table       obis.Table
	StopTimeout time.Duration
	Demo        DemoToggle
	Observer    Observer
	Logger      zerolog.Logger
}

// Controller owns the read loop of one meter.
type Controller struct {
	opener   SourceOpener
	display  Display
	actuator Actuator

	table       obis.Table
	stopTimeout time.Duration
	demo        DemoToggle
	observer    Observer
	logger      zerolog.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu    sync.Mutex
	state State
	err   error
	run   *run

	// actuatorMu is held for every actuator write; the loop only writes
	// while its context is live.
	actuatorMu sync.Mutex
}

type run struct {
	cancel    context.CancelFunc
	done      chan struct{}
	source    io.ReadCloser
	closeOnce sync.Once
}
