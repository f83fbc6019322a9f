package ledstrip

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	Off       = Color{0, 0, 0}
	Normal    = Color{0, 0, 255}
	Curtailed = Color{205, 0, 255}
)

// Driver sets individual pixels of an addressable strip.
type Driver interface {
	Len() int
	SetPixel(index int, c Color) error
}

// Pixels is an in-memory strip. It backs the indicator when no hardware
// driver is attached and lets the API report what the strip shows.
type Pixels struct {
	mu     sync.RWMutex
	pixels []Color
}

// Indicator fills the whole strip with one color, two halves in step.
type Indicator struct {
	mu         sync.Mutex
	driver     Driver
	stageDelay time.Duration
	logger     zerolog.Logger
	current    Color
}
