package ledstrip

import (
	"fmt"
	"time"

	"github.com/NotCoffee418/p1plus_monitor/pkg/congestion"
	"github.com/rs/zerolog"
)

func NewPixels(n int) *Pixels {
	return &Pixels{pixels: make([]Color, n)}
}

func (p *Pixels) Len() int {
	return len(p.pixels)
}

func (p *Pixels) SetPixel(index int, c Color) error {
	if index < 0 || index >= len(p.pixels) {
		return fmt.Errorf("pixel %d out of range [0,%d)", index, len(p.pixels))
	}
	p.mu.Lock()
	p.pixels[index] = c
	p.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current pixel colors.
func (p *Pixels) Snapshot() []Color {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Color(nil), p.pixels...)
}

// NewIndicator wraps driver. stageDelay is slept between pixel pairs and may
// be zero.
func NewIndicator(driver Driver, stageDelay time.Duration, logger zerolog.Logger) *Indicator {
	return &Indicator{
		driver:     driver,
		stageDelay: stageDelay,
		logger:     logger.With().Str("component", "ledstrip").Logger(),
	}
}

// Fill sets every pixel to c. Pixel i and i+n/2 are set together.
func (ind *Indicator) Fill(c Color) error {
	ind.mu.Lock()
	defer ind.mu.Unlock()

	n := ind.driver.Len()
	half := (n + 1) / 2
	for i := 0; i < half; i++ {
		if err := ind.driver.SetPixel(i, c); err != nil {
			return err
		}
		if i+half < n {
			if err := ind.driver.SetPixel(i+half, c); err != nil {
				return err
			}
		}
		if ind.stageDelay > 0 {
			time.Sleep(ind.stageDelay)
		}
	}

	ind.current = c
	ind.logger.Debug().Uint8("r", c.R).Uint8("g", c.G).Uint8("b", c.B).Msg("Strip filled")
	return nil
}

// Show fills the strip with the color for state.
func (ind *Indicator) Show(state congestion.ActuationState) error {
	return ind.Fill(ColorFor(state))
}

func (ind *Indicator) Off() error {
	return ind.Fill(Off)
}

// Current returns the last color the strip was filled with.
func (ind *Indicator) Current() Color {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.current
}

func ColorFor(state congestion.ActuationState) Color {
	if state == congestion.Curtailed {
		return Curtailed
	}
	return Normal
}
