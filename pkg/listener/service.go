// Package listener consumes the update stream of a running monitor.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func New(host string, logger zerolog.Logger) *Listener {
	return &Listener{
		URL:            url.URL{Scheme: "ws", Host: host, Path: "/ws"},
		MaxRetries:     10,
		BaseRetryDelay: 2 * time.Second,
		MaxRetryDelay:  60 * time.Second,
		ReadTimeout:    10 * time.Second,
		PingInterval:   30 * time.Second,
		logger:         logger.With().Str("component", "listener").Logger(),
	}
}

// Run connects and calls handle for each update until ctx is done. Lost
// connections are retried with exponential backoff. Run returns nil when ctx
// ends and ErrMaxRetries when the monitor stays unreachable.
func (l *Listener) Run(ctx context.Context, handle func(update session.Update)) error {
	retryCount := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		if retryCount > 0 {
			retryDelay := l.retryDelay(retryCount)
			l.logger.Info().
				Dur("delay", retryDelay).
				Int("attempt", retryCount+1).
				Int("max", l.MaxRetries).
				Msg("Retrying connection")
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil
			}
		}

		l.logger.Info().Str("url", l.URL.String()).Msg("Connecting")

		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, l.URL.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn().Err(err).Msg("Connection failed")
			retryCount++
			if retryCount >= l.MaxRetries {
				return fmt.Errorf("%w: %d attempts: %w", ErrMaxRetries, retryCount, err)
			}
			continue
		}

		l.logger.Info().Msg("Connected, accepting meter updates")
		retryCount = 0

		broken := l.handleConnection(ctx, c, handle)
		c.Close()
		if !broken {
			return nil
		}
		l.logger.Warn().Msg("Connection lost, will retry")
	}
}

func (l *Listener) retryDelay(retryCount int) time.Duration {
	// Calculate retry delay with exponential backoff
	delay := l.BaseRetryDelay
	for i := 1; i < retryCount && delay < l.MaxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, l.MaxRetryDelay)
}

// handleConnection reports whether the connection broke, as opposed to ctx
// ending.
func (l *Listener) handleConnection(ctx context.Context, c *websocket.Conn, handle func(update session.Update)) bool {
	done := make(chan struct{})

	c.SetReadDeadline(time.Now().Add(l.ReadTimeout))

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					l.logger.Warn().Err(err).Msg("WebSocket error")
				} else {
					l.logger.Debug().Err(err).Msg("Connection closed")
				}
				return
			}
			c.SetReadDeadline(time.Now().Add(l.ReadTimeout))

			if messageType != websocket.TextMessage {
				l.logger.Debug().Int("type", messageType).Msg("Unexpected message type")
				continue
			}
			var update session.Update
			if err := json.Unmarshal(message, &update); err != nil {
				l.logger.Warn().Err(err).Str("message", string(message)).Msg("Failed to parse update")
				continue
			}
			handle(update)
		}
	}()

	ticker := time.NewTicker(l.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			if err != nil {
				l.logger.Debug().Err(err).Msg("Failed to send ping")
			}
		case <-ctx.Done():
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				l.logger.Debug().Err(err).Msg("Error sending close message")
			}

			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}
