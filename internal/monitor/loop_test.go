package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arunkv/aqi-monitor/internal/domain"
	"github.com/arunkv/aqi-monitor/internal/sensor"
	"github.com/arunkv/aqi-monitor/internal/status"
	"github.com/arunkv/aqi-monitor/internal/telemetry"
)

// scripted device: returns samples in order, then repeats the last one
type scriptedDevice struct {
	samples [][2]float64
	errAt   map[int]error // query index -> error
	i       int
	calls   []string
}

func (d *scriptedDevice) Wake() error {
	d.calls = append(d.calls, "wake")
	return nil
}

func (d *scriptedDevice) Sleep() error {
	d.calls = append(d.calls, "sleep")
	return nil
}

func (d *scriptedDevice) Query() (float64, float64, error) {
	d.calls = append(d.calls, "query")
	idx := d.i
	d.i++
	if err, ok := d.errAt[idx]; ok {
		return 0, 0, err
	}
	s := d.samples[min(idx, len(d.samples)-1)]
	return s[0], s[1], nil
}

type countingNotifier struct {
	bodies []string
	err    error
}

func (n *countingNotifier) Send(ctx context.Context, body string) error {
	n.bodies = append(n.bodies, body)
	return n.err
}

type recordingSink struct {
	sent   []string
	values []float64
	err    error
}

func (s *recordingSink) SendMetric(ctx context.Context, name string, value float64) error {
	s.sent = append(s.sent, name)
	s.values = append(s.values, value)
	return s.err
}

var feeds = telemetry.Feeds{PM25: "pm25", PM10: "pm10", AQI: "aqi"}

func newTestLoop(dev *scriptedDevice, nt *countingNotifier, sink *recordingSink, st *status.Store, log *zap.Logger) *Loop {
	sc := sensor.NewController(dev, log, 0)
	up := telemetry.NewUploader(sink, log, feeds)
	return NewLoop(log, sc, up, nt, st, Config{Idle: time.Millisecond, NotifyEnabled: true})
}

func TestCycle_EndToEnd_NotifiesOnceOnEdge(t *testing.T) {
	dev := &scriptedDevice{samples: [][2]float64{{40, 60}, {38, 55}}}
	nt := &countingNotifier{}
	sink := &recordingSink{}
	loop := newTestLoop(dev, nt, sink, nil, zap.NewNop())

	ctx := context.Background()
	loop.cycle(ctx) // 40/60 -> AQI 112, first edge crossing
	loop.cycle(ctx) // 38/55 -> AQI 107, still unhealthy, no re-notify

	if len(nt.bodies) != 1 {
		t.Fatalf("notified %d times, want 1: %v", len(nt.bodies), nt.bodies)
	}
	if nt.bodies[0] != "AQI is unhealthy - last reading 112" {
		t.Fatalf("body = %q", nt.bodies[0])
	}
	if loop.lastAqi == nil || *loop.lastAqi != 107 {
		t.Fatalf("lastAqi = %v, want 107", loop.lastAqi)
	}
	// two cycles, three metrics each
	if len(sink.sent) != 6 {
		t.Fatalf("uploaded %d metrics, want 6", len(sink.sent))
	}
}

func TestCycle_ConstantOutputNeverDuplicateNotifies(t *testing.T) {
	dev := &scriptedDevice{samples: [][2]float64{{40, 60}}}
	nt := &countingNotifier{}
	loop := newTestLoop(dev, nt, &recordingSink{}, nil, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		loop.cycle(ctx)
	}
	if len(nt.bodies) != 1 {
		t.Fatalf("notified %d times, want 1", len(nt.bodies))
	}
	if *loop.lastAqi != 112 {
		t.Fatalf("lastAqi = %v, want constant 112", *loop.lastAqi)
	}
}

func TestCycle_ReadFailureSkipsRestOfCycle(t *testing.T) {
	dev := &scriptedDevice{
		samples: [][2]float64{{40, 60}},
		errAt:   map[int]error{0: errors.New("serial fault")},
	}
	nt := &countingNotifier{}
	sink := &recordingSink{}
	st := status.New(domain.Interactive)
	core, logs := observer.New(zap.InfoLevel)
	loop := newTestLoop(dev, nt, sink, st, zap.New(core))

	ctx := context.Background()
	loop.cycle(ctx) // fails

	if len(sink.sent) != 0 {
		t.Fatalf("uploaded %v after read failure", sink.sent)
	}
	if len(nt.bodies) != 0 {
		t.Fatal("notified after read failure")
	}
	if loop.lastAqi != nil {
		t.Fatalf("lastAqi = %v, want nil after failed read", *loop.lastAqi)
	}
	if logs.FilterMessage("sensor_read_error").Len() != 1 {
		t.Fatal("read failure not reported")
	}

	loop.cycle(ctx) // recovers, crosses edge against unknown lastAqi
	if len(nt.bodies) != 1 {
		t.Fatalf("notified %d times after recovery, want 1", len(nt.bodies))
	}
	snap := st.Snapshot()
	if snap.Cycles != 2 || snap.ReadFailures != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestCycle_NoChannelConfiguredSkipsNotifyWithoutFailing(t *testing.T) {
	dev := &scriptedDevice{samples: [][2]float64{{40, 60}}}
	sink := &recordingSink{}
	core, logs := observer.New(zap.InfoLevel)

	sc := sensor.NewController(dev, zap.New(core), 0)
	up := telemetry.NewUploader(sink, zap.New(core), feeds)
	loop := NewLoop(zap.New(core), sc, up, nil, nil, Config{Idle: time.Millisecond, NotifyEnabled: true})

	loop.cycle(context.Background()) // unhealthy edge with no notifier wired

	if len(sink.sent) != 3 {
		t.Fatalf("uploaded %d metrics, want 3", len(sink.sent))
	}
	if loop.lastAqi == nil || *loop.lastAqi != 112 {
		t.Fatalf("lastAqi = %v, want 112", loop.lastAqi)
	}
	if logs.FilterMessage("notify_skipped_no_channel").Len() != 1 {
		t.Fatal("want one notify_skipped_no_channel log")
	}
	if logs.FilterMessage("notify_start").Len() != 0 || logs.FilterMessage("notify_done").Len() != 0 {
		t.Fatal("notify_start/notify_done must not be logged without a channel")
	}
}

func TestCycle_NotifyFailureDoesNotBlockUpload(t *testing.T) {
	dev := &scriptedDevice{samples: [][2]float64{{40, 60}}}
	nt := &countingNotifier{err: errors.New("sms gateway down")}
	sink := &recordingSink{}
	core, logs := observer.New(zap.InfoLevel)
	loop := newTestLoop(dev, nt, sink, nil, zap.New(core))

	loop.cycle(context.Background())

	if len(sink.sent) != 3 {
		t.Fatalf("uploaded %d metrics, want 3 despite notify failure", len(sink.sent))
	}
	if logs.FilterMessage("notify_error").Len() != 1 {
		t.Fatal("notify failure not reported")
	}
	if loop.lastAqi == nil {
		t.Fatal("lastAqi not updated despite notify failure")
	}
}

func TestCycle_UploadFailureStillUpdatesLastAqi(t *testing.T) {
	dev := &scriptedDevice{samples: [][2]float64{{10, 20}}}
	sink := &recordingSink{err: errors.New("sink down")}
	loop := newTestLoop(dev, &countingNotifier{}, sink, nil, zap.NewNop())

	loop.cycle(context.Background())

	if loop.lastAqi == nil {
		t.Fatal("lastAqi not updated after upload failure")
	}
	if len(sink.sent) != 3 {
		t.Fatalf("want all three metrics attempted, got %v", sink.sent)
	}
}

func TestRun_StopsOnCancelAndLeavesSensorAsleep(t *testing.T) {
	dev := &scriptedDevice{samples: [][2]float64{{10, 20}}}
	loop := newTestLoop(dev, &countingNotifier{}, &recordingSink{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	// Every wake must be followed by a sleep before Run returns.
	if dev.calls[len(dev.calls)-1] == "wake" || dev.calls[len(dev.calls)-1] == "query" {
		t.Fatalf("sensor left awake: %v", dev.calls)
	}
	wakes, sleeps := 0, 0
	for _, c := range dev.calls {
		switch c {
		case "wake":
			wakes++
		case "sleep":
			sleeps++
		}
	}
	if sleeps != wakes {
		t.Fatalf("wakes=%d sleeps=%d, want equal", wakes, sleeps)
	}
}

func TestCycle_ReportsTheTriple(t *testing.T) {
	dev := &scriptedDevice{samples: [][2]float64{{40, 60}}}
	core, logs := observer.New(zap.InfoLevel)
	loop := newTestLoop(dev, &countingNotifier{}, &recordingSink{}, nil, zap.New(core))

	loop.cycle(context.Background())

	entries := logs.FilterMessage("reading").All()
	if len(entries) != 1 {
		t.Fatalf("want one reading log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["pm25"] != 40.0 || fields["pm10"] != 60.0 || fields["aqi"] != 112.0 {
		t.Fatalf("reading fields = %v", fields)
	}

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	joined := strings.Join(msgs, ",")
	for _, want := range []string{"sensor_wake", "sensor_query", "sensor_sleep", "upload_start"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in logged steps: %v", want, msgs)
		}
	}
}
