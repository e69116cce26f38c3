package configs

import (
	"fmt"
	"time"
)

// Dispatch configures the campaign dispatch loop. Business hours are
// expressed as local hours of day in Timezone and form a half-open
// interval [StartHour, EndHour). SendInterval paces individual message
// sends while a campaign is being worked; PollInterval is used while the
// loop is idle or outside business hours.
type Dispatch struct {
	// Enabled controls whether the dispatch loop is started at all. A
	// pure API deployment can set this to false and leave dispatching to
	// a dedicated instance.
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// Timezone is the IANA identifier the business-hours window is
	// evaluated in.
	Timezone string `env:"TIMEZONE" envDefault:"America/Sao_Paulo"`

	// StartHour and EndHour bound the business-hours window. The end
	// hour itself is closed for business.
	StartHour int `env:"BUSINESS_HOURS_START" envDefault:"8"`
	EndHour   int `env:"BUSINESS_HOURS_END" envDefault:"18"`

	// SendInterval is the pause between consecutive message sends. It
	// exists to respect the delivery provider's rate limit, not to
	// maximise throughput.
	SendInterval time.Duration `env:"SEND_INTERVAL" envDefault:"35s"`

	// PollInterval is the pause between checks while no campaign is
	// current or the window is closed.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"60s"`

	// DeliveryTimeout bounds a single outbound delivery request.
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"10s"`
}

// Location resolves the configured timezone. An unknown identifier is an
// error; the window semantics depend on local wall-clock hours.
func (c Dispatch) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the window bounds and intervals for sanity.
func (c Dispatch) Validate() error {
	if c.StartHour < 0 || c.StartHour > 23 || c.EndHour < 1 || c.EndHour > 24 {
		return fmt.Errorf("business hours out of range: %d-%d", c.StartHour, c.EndHour)
	}
	if c.StartHour >= c.EndHour {
		return fmt.Errorf("business hours window is empty: %d-%d", c.StartHour, c.EndHour)
	}
	if c.SendInterval <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	return nil
}
