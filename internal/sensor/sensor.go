package sensor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Device is the narrow boundary to the physical particulate sensor.
type Device interface {
	// Wake enables active sampling (fan and laser on).
	Wake() error
	// Sleep disables sampling. Safe to call on an already-sleeping device.
	Sleep() error
	// Query reads one (pm25, pm10) sample in µg/m³.
	Query() (pm25, pm10 float64, err error)
}

// ReadError is a sensor communication fault during one acquisition.
// Op names the step that failed: "wake", "warmup", or "query".
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("sensor %s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Controller owns the sensor duty cycle: wake, warm up, read once, sleep.
type Controller struct {
	dev    Device
	log    *zap.Logger
	warmup time.Duration
}

func NewController(dev Device, log *zap.Logger, warmup time.Duration) *Controller {
	if warmup < 0 {
		warmup = 0
	}
	return &Controller{dev: dev, log: log, warmup: warmup}
}

// Acquire runs one full duty cycle and returns a single sample. The sensor
// is put back to sleep on every exit path, including query faults and
// cancellation during warm-up; a powered-on sensor never leaks past this
// call. Faults surface as *ReadError; there is no retry here — the next
// scheduled cycle is the retry.
func (c *Controller) Acquire(ctx context.Context) (pm25, pm10 float64, err error) {
	c.log.Info("sensor_wake")
	wakeErr := c.dev.Wake()

	defer func() {
		c.log.Info("sensor_sleep")
		if serr := c.dev.Sleep(); serr != nil {
			c.log.Error("sensor_sleep_error", zap.Error(serr))
		}
	}()

	if wakeErr != nil {
		return 0, 0, &ReadError{Op: "wake", Err: wakeErr}
	}

	// Blocking warm-up wait; the fan needs to stabilize before a reading
	// can be trusted.
	t := time.NewTimer(c.warmup)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return 0, 0, &ReadError{Op: "warmup", Err: ctx.Err()}
	}

	c.log.Info("sensor_query")
	pm25, pm10, qerr := c.dev.Query()
	if qerr != nil {
		return 0, 0, &ReadError{Op: "query", Err: qerr}
	}
	return pm25, pm10, nil
}
