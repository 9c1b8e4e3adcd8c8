package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arunkv/aqi-monitor/internal/config"
	"github.com/arunkv/aqi-monitor/internal/domain"
	"github.com/arunkv/aqi-monitor/internal/httpapi"
	"github.com/arunkv/aqi-monitor/internal/logging"
	"github.com/arunkv/aqi-monitor/internal/monitor"
	"github.com/arunkv/aqi-monitor/internal/notify"
	"github.com/arunkv/aqi-monitor/internal/sensor"
	"github.com/arunkv/aqi-monitor/internal/status"
	"github.com/arunkv/aqi-monitor/internal/telemetry"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [options]
 -d, --daemon  Daemon mode; defaults to interactive mode
 -h, --help    Show this help
 -n, --notify  Notify via SMS
`, os.Args[0])
}

func main() {
	var daemonMode, notifyMode bool
	flag.BoolVar(&daemonMode, "d", false, "daemon mode")
	flag.BoolVar(&daemonMode, "daemon", false, "daemon mode")
	flag.BoolVar(&notifyMode, "n", false, "notify via SMS")
	flag.BoolVar(&notifyMode, "notify", false, "notify via SMS")
	flag.Usage = usage
	flag.Parse() // unknown flag: usage + exit 2; -h/--help: usage + exit 0

	_ = godotenv.Load()
	cfg := config.FromEnv()

	mode := domain.Interactive
	logger := logging.NewConsole()
	if daemonMode {
		mode = domain.Daemon
		var err error
		logger, err = logging.NewDaemon(cfg.LogDir)
		if err != nil {
			log.Fatalf("reporter: %v", err)
		}
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("mode", mode.String()),
		zap.Bool("notify", notifyMode),
		zap.String("sensor_port", cfg.SerialPort),
	)

	dev, err := sensor.OpenSDS011(cfg.SerialPort, 5*time.Second)
	if err != nil {
		logger.Error("sensor_open_error", zap.Error(err))
		os.Exit(1)
	}
	defer dev.Close()

	logger.Info("telemetry_init", zap.String("broker", cfg.MQTTBroker))
	sink := telemetry.NewMQTTSink(telemetry.MQTTConfig{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  "aqi-monitor",
		Username:  cfg.MQTTUser,
		Key:       cfg.MQTTKey,
	}, logger)
	if err := sink.Connect(); err != nil {
		// Not fatal: the sink re-establishes the session per metric.
		logger.Error("telemetry_connect_error", zap.Error(err))
	}
	defer sink.Close()

	uploader := telemetry.NewUploader(sink, logger, telemetry.Feeds{
		PM25: cfg.PM25Feed,
		PM10: cfg.PM10Feed,
		AQI:  cfg.AQIFeed,
	})

	var channels notify.Multi
	if tw := notify.NewTwilio(cfg.TwilioSID, cfg.TwilioSecret, cfg.TwilioFrom, cfg.TwilioTo); tw != nil {
		channels = append(channels, tw)
	}
	if wh := notify.NewWebhook(cfg.WebhookURL); wh != nil {
		channels = append(channels, wh)
	}
	var notifier notify.Notifier
	if len(channels) > 0 {
		notifier = channels
	} else if notifyMode {
		logger.Warn("notify_enabled_without_channels")
	}

	st := status.New(mode)
	if cfg.Addr != "" {
		api := httpapi.NewServer(logger, st)
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.Addr))
			if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
				logger.Error("api_error", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	controller := sensor.NewController(dev, logger, cfg.Warmup)
	loop := monitor.NewLoop(logger, controller, uploader, notifier, st, monitor.Config{
		Idle:          cfg.Idle,
		NotifyEnabled: notifyMode,
	})

	_ = loop.Run(ctx)
}
