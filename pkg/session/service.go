package session

import (
	"context"
	"fmt"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/congestion"
	"github.com/NotCoffee418/p1plus_monitor/pkg/obis"
	"github.com/NotCoffee418/p1plus_monitor/pkg/reading"
	"github.com/NotCoffee418/p1plus_monitor/pkg/telegram"
)

const DefaultStopTimeout = time.Second

func NewController(opener SourceOpener, display Display, actuator Actuator, opts Options) *Controller {
	c := &Controller{
		opener:      opener,
		display:     display,
		actuator:    actuator,
		table:       opts.Table,
		stopTimeout: opts.StopTimeout,
		demo:        opts.Demo,
		observer:    opts.Observer,
		logger:      opts.Logger.With().Str("component", "session").Logger(),
	}
	if c.table == nil {
		c.table = obis.DefaultTable
	}
	if c.stopTimeout <= 0 {
		c.stopTimeout = DefaultStopTimeout
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that failed the last session, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Start opens the source and starts the read loop. It does nothing while a
// session is reading; a failed session is torn down first.
func (c *Controller) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.state == Reading {
		c.mu.Unlock()
		return nil
	}
	previous := c.run != nil
	c.mu.Unlock()

	if previous {
		c.stop()
	}

	source, err := c.opener.Open(ctx)
	if err != nil {
		err = fmt.Errorf("open source: %w", err)
		c.mu.Lock()
		c.state, c.err = Failed, err
		c.mu.Unlock()
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, done: make(chan struct{}), source: source}

	c.mu.Lock()
	c.run, c.state, c.err = r, Reading, nil
	c.mu.Unlock()

	c.logger.Info().Msg("Session started")
	go c.loop(loopCtx, r)
	return nil
}

// Stop cancels the read loop, switches the actuator off and waits up to the
// stop timeout for the loop to exit. It is a no-op when no session exists.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stop()
}

func (c *Controller) stop() {
	c.mu.Lock()
	r := c.run
	if r == nil {
		if c.state == Failed {
			c.state, c.err = Idle, nil
		}
		c.mu.Unlock()
		return
	}
	c.state = Stopping
	c.mu.Unlock()

	r.cancel()

	c.actuatorMu.Lock()
	if err := c.actuator.Off(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to switch indicator off")
	}
	c.actuatorMu.Unlock()

	select {
	case <-r.done:
	case <-time.After(c.stopTimeout):
		// The loop is blocked in a read; closing the source releases it.
		c.logger.Warn().Dur("timeout", c.stopTimeout).Msg("Read loop did not stop in time, closing source")
		r.closeSource()
	}

	c.mu.Lock()
	c.run, c.state, c.err = nil, Idle, nil
	c.mu.Unlock()
	c.logger.Info().Msg("Session stopped")
}

func (c *Controller) loop(ctx context.Context, r *run) {
	defer close(r.done)
	defer r.closeSource()

	framer := telegram.NewFramer(r.source, c.table, c.logger)
	var demo congestion.Demo
	var actuated bool
	var lastState congestion.ActuationState

	for {
		t, result, err := framer.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.fail(r, err)
			return
		}

		if c.observer != nil {
			c.observer.ObserveTelegram(result)
		}
		if !result.OK() {
			c.logger.Warn().Err(result.Err()).Msg("Dropping telegram")
			continue
		}

		update := c.buildUpdate(t, &demo)
		c.display.Show(update)

		state := update.State()
		if !actuated || state != lastState {
			if c.actuate(ctx, state) {
				actuated, lastState = true, state
			}
		}
	}
}

func (c *Controller) actuate(ctx context.Context, state congestion.ActuationState) bool {
	c.actuatorMu.Lock()
	defer c.actuatorMu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	if err := c.actuator.Show(state); err != nil {
		c.logger.Error().Err(err).Stringer("state", state).Msg("Failed to drive indicator")
		return false
	}
	return true
}

func (c *Controller) fail(r *run, err error) {
	c.logger.Error().Err(err).Msg("Byte stream ended, session needs a restart")
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == r && c.state == Reading {
		c.state, c.err = Failed, err
	}
}

func (c *Controller) buildUpdate(t *telegram.Telegram, demo *congestion.Demo) Update {
	fields := t.Fields
	message := fields[obis.FieldTextMessage].Text

	demoEnabled := c.demo != nil && c.demo.DemoEnabled()
	if demoEnabled {
		message = demo.Next()
	}
	record := congestion.Parse(message)

	rd, err := reading.FromFields(fields)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Could not build typed reading")
	}

	return Update{
		ReceivedAt: time.Now(),
		Identifier: reading.DecodeIdentifier(fields[obis.FieldIdentifier].Text),
		CurrentL1:  fields[obis.FieldCurrentL1].Int,
		CurrentL2:  fields[obis.FieldCurrentL2].Int,
		CurrentL3:  fields[obis.FieldCurrentL3].Int,
		Limits:     record,
		Curtailed:  record.State() == congestion.Curtailed,
		Message:    message,
		Demo:       demoEnabled,
		Reading:    rd,
	}
}

func (r *run) closeSource() {
	r.closeOnce.Do(func() {
		r.source.Close()
	})
}

func (ds Displays) Show(update Update) {
	for _, d := range ds {
		d.Show(update)
	}
}
