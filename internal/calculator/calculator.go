// Package calculator holds the inventory arithmetic: order and sale totals,
// margins, reorder suggestions, stockout projections, valuation, stock level
// classification and transaction validation. Every operation is a pure
// function of its inputs and the configured Settings.
package calculator

import "time"

// Calculator evaluates stock and pricing policy. It is immutable and safe for
// concurrent use.
type Calculator struct {
	settings Settings
	now      func() time.Time
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithClock overrides the clock used to anchor stockout dates.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Calculator from settings.
func New(settings Settings, opts ...Option) (*Calculator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	c := &Calculator{settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Default returns a Calculator using DefaultSettings.
func Default() *Calculator {
	c, err := New(DefaultSettings())
	if err != nil {
		panic(err)
	}
	return c
}

// Settings returns the policy in effect.
func (c *Calculator) Settings() Settings {
	return c.settings
}
