// Package notify delivers the unhealthy-air alert through one or more
// channels. Channel failures are transient by contract: they surface as
// *NotifyError for the caller to log, never to act on.
package notify

import (
	"context"
	"fmt"
)

// Notifier sends a short text message to a preconfigured destination.
type Notifier interface {
	Send(ctx context.Context, body string) error
}

// NotifyError is a failed delivery on one channel.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// UnhealthyMessage renders the fixed alert template for an AQI reading.
func UnhealthyMessage(aqi float64) string {
	return fmt.Sprintf("AQI is unhealthy - last reading %.0f", aqi)
}

// Multi fans one message out to every configured channel. All channels are
// attempted; the first failure is returned.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, body string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
