package congestiondb

import (
	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/rs/zerolog"
)

func NewRecorder(store *Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "congestiondb").Logger(),
	}
}

// Show implements session.Display.
func (r *Recorder) Show(update session.Update) {
	state := update.State()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen && state == r.last {
		return
	}

	err := r.store.InsertEvent(&CongestionEvent{
		Timestamp:    update.ReceivedAt.Unix(),
		Identifier:   update.Identifier,
		State:        state.String(),
		ActiveLimits: update.Limits.ActiveLimits(),
		Message:      update.Message,
		Demo:         update.Demo,
	})
	if err != nil {
		// Retry on the next update.
		r.logger.Error().Err(err).Msg("Failed to store congestion event")
		return
	}
	r.seen, r.last = true, state
}
