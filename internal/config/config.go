package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	SerialPort string        // sensor device, e.g. /dev/ttyUSB0
	Warmup     time.Duration // sensor warm-up before a reading is trusted
	Idle       time.Duration // wait between cycles
	LogDir     string        // daemon-mode file fallback when syslog is unreachable

	Addr string // status API bind address; empty disables the API

	// Telemetry sink (Adafruit IO-style MQTT feeds)
	MQTTBroker string
	MQTTUser   string
	MQTTKey    string
	PM25Feed   string
	PM10Feed   string
	AQIFeed    string

	// Alerting channels
	TwilioSID    string
	TwilioSecret string
	TwilioFrom   string
	TwilioTo     string
	WebhookURL   string
}

func FromEnv() Config {
	port := os.Getenv("SENSOR_PORT")
	if port == "" {
		port = "/dev/ttyUSB0"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://io.adafruit.com:1883"
	}

	return Config{
		SerialPort: port,
		Warmup:     durationSeconds("WARMUP_SECONDS", 15*time.Second),
		Idle:       durationSeconds("IDLE_SECONDS", 45*time.Second),
		LogDir:     logDir,

		Addr: os.Getenv("API_ADDR"),

		MQTTBroker: broker,
		MQTTUser:   os.Getenv("AIO_USERNAME"),
		MQTTKey:    os.Getenv("AIO_KEY"),
		PM25Feed:   feed("PM25_FEED_KEY", "pm2-dot-5"),
		PM10Feed:   feed("PM10_FEED_KEY", "pm10"),
		AQIFeed:    feed("AQI_FEED_KEY", "aqi"),

		TwilioSID:    os.Getenv("TWILIO_SID"),
		TwilioSecret: os.Getenv("TWILIO_SECRET"),
		TwilioFrom:   os.Getenv("TWILIO_FROM"),
		TwilioTo:     os.Getenv("TWILIO_TO"),
		WebhookURL:   os.Getenv("ALERT_WEBHOOK_URL"),
	}
}

func feed(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
