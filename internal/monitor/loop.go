// Package monitor runs the polling cycle: acquire a sample, compute the
// AQI, decide on a notification, upload the metrics, wait, repeat. One
// logical thread of control; the only memory carried across cycles is the
// previous AQI.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arunkv/aqi-monitor/internal/alert"
	"github.com/arunkv/aqi-monitor/internal/aqi"
	"github.com/arunkv/aqi-monitor/internal/domain"
	"github.com/arunkv/aqi-monitor/internal/notify"
	"github.com/arunkv/aqi-monitor/internal/sensor"
	"github.com/arunkv/aqi-monitor/internal/status"
	"github.com/arunkv/aqi-monitor/internal/telemetry"
)

type Config struct {
	Idle          time.Duration // wait between cycles
	NotifyEnabled bool
}

type Loop struct {
	log      *zap.Logger
	sensor   *sensor.Controller
	uploader *telemetry.Uploader
	notifier notify.Notifier
	status   *status.Store
	cfg      Config

	// lastAqi is the sole cross-cycle state. nil until the first
	// successful reading; resets with the process.
	lastAqi *float64
}

func NewLoop(
	log *zap.Logger,
	sc *sensor.Controller,
	up *telemetry.Uploader,
	nt notify.Notifier,
	st *status.Store,
	cfg Config,
) *Loop {
	if cfg.Idle <= 0 {
		cfg.Idle = 45 * time.Second
	}
	return &Loop{
		log:      log,
		sensor:   sc,
		uploader: up,
		notifier: nt,
		status:   st,
		cfg:      cfg,
	}
}

// Run cycles until ctx is cancelled. The sensor is asleep whenever Run is
// between cycles, so cancellation at any suspension point leaves no
// powered-on hardware behind.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("monitor_start", zap.Duration("idle", l.cfg.Idle), zap.Bool("notify", l.cfg.NotifyEnabled))
	for {
		l.cycle(ctx)

		select {
		case <-ctx.Done():
			l.log.Info("monitor_stop")
			return ctx.Err()
		case <-time.After(l.cfg.Idle):
		}
		if ctx.Err() != nil {
			l.log.Info("monitor_stop")
			return ctx.Err()
		}
	}
}

// cycle runs one acquisition. No failure inside the cycle propagates: a
// read fault skips the rest of the cycle (stale concentrations are never
// reused), a notify fault does not block the upload, an upload fault does
// not block the lastAqi update.
func (l *Loop) cycle(ctx context.Context) {
	pm25, pm10, err := l.sensor.Acquire(ctx)
	if err != nil {
		l.log.Error("sensor_read_error", zap.Error(err))
		if l.status != nil {
			l.status.RecordReadFailure()
		}
		return
	}

	value := aqi.Compute(pm25, pm10)
	reading := domain.Reading{
		PM25:      pm25,
		PM10:      pm10,
		AQI:       value,
		Timestamp: time.Now().UTC(),
	}
	l.log.Info("reading",
		zap.Float64("pm25", pm25),
		zap.Float64("pm10", pm10),
		zap.Float64("aqi", value),
	)

	if alert.ShouldNotify(value, l.lastAqi, l.cfg.NotifyEnabled) {
		if l.notifier == nil {
			l.log.Warn("notify_skipped_no_channel", zap.Float64("aqi", value))
		} else {
			l.log.Info("notify_start", zap.Float64("aqi", value))
			if err := l.notifier.Send(ctx, notify.UnhealthyMessage(value)); err != nil {
				l.log.Error("notify_error", zap.Error(err))
			} else {
				l.log.Info("notify_done")
			}
		}
	}

	// Best effort; Push logs its own failures per metric.
	_ = l.uploader.Push(ctx, reading)

	if l.status != nil {
		l.status.RecordReading(reading)
	}

	v := value
	l.lastAqi = &v
}
