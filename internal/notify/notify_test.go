package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUnhealthyMessage_Format(t *testing.T) {
	got := UnhealthyMessage(112)
	want := "AQI is unhealthy - last reading 112"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTwilio_SendPostsForm(t *testing.T) {
	var gotBody string
	var gotAuthOK bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		gotAuthOK = ok && user == "SID123" && pass == "secret"
		_ = r.ParseForm()
		gotBody = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tw := NewTwilio("SID123", "secret", "+15550001", "+15550002")
	tw.BaseURL = srv.URL

	if err := tw.Send(context.Background(), "AQI is unhealthy - last reading 112"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !gotAuthOK {
		t.Fatal("basic auth not presented")
	}
	if gotBody != "AQI is unhealthy - last reading 112" {
		t.Fatalf("Body = %q", gotBody)
	}
}

func TestTwilio_Non2xxIsNotifyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tw := NewTwilio("SID123", "secret", "+15550001", "+15550002")
	tw.BaseURL = srv.URL

	err := tw.Send(context.Background(), "msg")
	var nerr *NotifyError
	if !errors.As(err, &nerr) {
		t.Fatalf("want *NotifyError, got %v", err)
	}
	if nerr.Channel != "twilio" {
		t.Fatalf("Channel = %q", nerr.Channel)
	}
}

func TestNewTwilio_NilWhenUnconfigured(t *testing.T) {
	if NewTwilio("", "", "", "") != nil {
		t.Fatal("want nil for missing credentials")
	}
}

func TestWebhook_SendPostsJSON(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL)
	if err := wh.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Text != "hello" {
		t.Fatalf("payload text = %q", got.Text)
	}
}

type fakeNotifier struct {
	sent int
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, body string) error {
	f.sent++
	return f.err
}

func TestMulti_UnconfiguredChannelsFailWithoutPanic(t *testing.T) {
	// Typed nil pointers stored in the interface slice bypass the n == nil
	// skip in Multi.Send; the nil-receiver guards must turn them into
	// errors, never a dereference.
	m := Multi{NewTwilio("", "", "", ""), NewWebhook("")}

	err := m.Send(context.Background(), "AQI is unhealthy - last reading 112")
	var nerr *NotifyError
	if !errors.As(err, &nerr) {
		t.Fatalf("want *NotifyError for unconfigured channels, got %v", err)
	}
}

func TestSend_NilReceiversReturnNotifyError(t *testing.T) {
	var tw *Twilio
	if err := tw.Send(context.Background(), "msg"); err == nil {
		t.Fatal("nil *Twilio: want error")
	}
	var wh *Webhook
	if err := wh.Send(context.Background(), "msg"); err == nil {
		t.Fatal("nil *Webhook: want error")
	}
}

func TestMulti_AttemptsAllChannels(t *testing.T) {
	a := &fakeNotifier{err: errors.New("boom")}
	b := &fakeNotifier{}
	m := Multi{a, nil, b}

	err := m.Send(context.Background(), "msg")
	if err == nil {
		t.Fatal("want first error returned")
	}
	if a.sent != 1 || b.sent != 1 {
		t.Fatalf("sends = (%d, %d), want (1, 1)", a.sent, b.sent)
	}
}
