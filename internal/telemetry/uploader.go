// Package telemetry pushes the per-cycle metrics to the time-series sink.
package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/arunkv/aqi-monitor/internal/domain"
)

// Sink accepts one named numeric data point. Implementations may fail
// transiently; the next cycle retries with fresh data.
type Sink interface {
	SendMetric(ctx context.Context, name string, value float64) error
}

// UploadError is a failed send for one metric.
type UploadError struct {
	Metric string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Metric, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Feeds holds the sink-side identifiers for the three metrics.
type Feeds struct {
	PM25 string
	PM10 string
	AQI  string
}

// Uploader sends the three metrics of a reading as independent data points.
type Uploader struct {
	sink  Sink
	log   *zap.Logger
	feeds Feeds
}

func NewUploader(sink Sink, log *zap.Logger, feeds Feeds) *Uploader {
	return &Uploader{sink: sink, log: log, feeds: feeds}
}

// Push sends pm2.5, pm10 and aqi. Every metric is attempted regardless of
// earlier failures; failures are logged at error level and aggregated into
// the returned error. There is no retry here.
func (u *Uploader) Push(ctx context.Context, r domain.Reading) error {
	u.log.Info("upload_start",
		zap.String("pm25_feed", u.feeds.PM25),
		zap.String("pm10_feed", u.feeds.PM10),
		zap.String("aqi_feed", u.feeds.AQI),
	)

	points := []struct {
		feed  string
		value float64
	}{
		{u.feeds.PM25, r.PM25},
		{u.feeds.PM10, r.PM10},
		{u.feeds.AQI, r.AQI},
	}

	var errs error
	for _, p := range points {
		if err := u.sink.SendMetric(ctx, p.feed, p.value); err != nil {
			u.log.Error("upload_error",
				zap.String("feed", p.feed),
				zap.Float64("value", p.value),
				zap.Error(err),
			)
			errs = multierr.Append(errs, &UploadError{Metric: p.feed, Err: err})
		}
	}
	if errs == nil {
		u.log.Info("upload_done")
	}
	return errs
}
