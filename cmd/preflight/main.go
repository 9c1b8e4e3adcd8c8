// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	port := strings.TrimSpace(os.Getenv("SENSOR_PORT"))
	aioUser := strings.TrimSpace(os.Getenv("AIO_USERNAME"))
	aioKey := strings.TrimSpace(os.Getenv("AIO_KEY"))
	twilioSID := strings.TrimSpace(os.Getenv("TWILIO_SID"))
	twilioSecret := strings.TrimSpace(os.Getenv("TWILIO_SECRET"))
	twilioFrom := strings.TrimSpace(os.Getenv("TWILIO_FROM"))
	twilioTo := strings.TrimSpace(os.Getenv("TWILIO_TO"))
	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))

	if port == "" {
		warn("SENSOR_PORT empty — /dev/ttyUSB0 will be used.")
		port = "/dev/ttyUSB0"
	}
	if _, err := os.Stat(port); err != nil {
		fail("sensor port " + port + " not present: " + err.Error())
	}
	ok("sensor port " + port + " present")

	if aioUser == "" || aioKey == "" {
		fail("AIO_USERNAME / AIO_KEY empty (uploads will fail every cycle).")
	}
	ok("telemetry credentials present")

	twilioVars := []string{twilioSID, twilioSecret, twilioFrom, twilioTo}
	set := 0
	for _, v := range twilioVars {
		if v != "" {
			set++
		}
	}
	webhook := strings.TrimSpace(os.Getenv("ALERT_WEBHOOK_URL"))
	switch set {
	case 0:
		warn("Twilio not configured — no SMS will be sent even with -n.")
	case len(twilioVars):
		ok("Twilio configured")
	default:
		fail("Twilio partially configured; set all of TWILIO_SID, TWILIO_SECRET, TWILIO_FROM, TWILIO_TO or none.")
	}
	if webhook != "" {
		ok("alert webhook configured")
	}
	if set == 0 && webhook == "" {
		warn("no notification channel configured — -n alerts will be skipped.")
	}

	if apiAddr == "" {
		warn("API_ADDR empty — status API disabled.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	ok("preflight passed")
}
