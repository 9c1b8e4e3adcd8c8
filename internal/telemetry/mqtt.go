package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTSink publishes metrics to an Adafruit IO-style broker, one topic per
// feed: <username>/feeds/<feed-key>.
type MQTTSink struct {
	client   mqtt.Client
	username string
	timeout  time.Duration
}

type MQTTConfig struct {
	BrokerURL string // e.g. tcp://io.adafruit.com:1883
	ClientID  string
	Username  string
	Key       string // API key, used as MQTT password
	Timeout   time.Duration
}

func NewMQTTSink(cfg MQTTConfig, log *zap.Logger) *MQTTSink {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Key)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Error("telemetry_connection_lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		log.Info("telemetry_reconnecting")
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MQTTSink{
		client:   mqtt.NewClient(opts),
		username: cfg.Username,
		timeout:  timeout,
	}
}

// Connect dials the broker. A failure here is not fatal to the monitor:
// SendMetric re-establishes the session on demand.
func (s *MQTTSink) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("connect: timed out after %s", s.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (s *MQTTSink) SendMetric(ctx context.Context, name string, value float64) error {
	if !s.client.IsConnectionOpen() {
		if err := s.Connect(); err != nil {
			return err
		}
	}
	topic := fmt.Sprintf("%s/feeds/%s", s.username, name)
	payload := strconv.FormatFloat(value, 'f', -1, 64)
	token := s.client.Publish(topic, 1, false, payload)

	done := make(chan bool, 1)
	go func() { done <- token.WaitTimeout(s.timeout) }()
	select {
	case completed := <-done:
		if !completed {
			return fmt.Errorf("publish %s: timed out after %s", topic, s.timeout)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
