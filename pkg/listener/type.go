package listener

import (
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

var ErrMaxRetries = errors.New("listener: max retries reached")

// Listener follows the /ws stream of a running monitor.
type Listener struct {
	URL url.URL

	MaxRetries     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
	// Updates arrive about every second; a silent connection is dead.
	ReadTimeout  time.Duration
	PingInterval time.Duration

	logger zerolog.Logger
}
