package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio sends SMS through the Twilio Messages endpoint.
type Twilio struct {
	SID    string
	Secret string
	From   string
	To     string
	Client *http.Client

	// BaseURL overrides the Twilio API root, for tests.
	BaseURL string
}

// NewTwilio returns a Twilio notifier, or nil if the account is not
// configured. Callers must not wire a nil result into a Multi; Send on a
// nil receiver fails with a NotifyError rather than panicking.
func NewTwilio(sid, secret, from, to string) *Twilio {
	if sid == "" || secret == "" || from == "" || to == "" {
		return nil
	}
	return &Twilio{
		SID:    sid,
		Secret: secret,
		From:   from,
		To:     to,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Twilio) Send(ctx context.Context, body string) error {
	if t == nil {
		return &NotifyError{Channel: "twilio", Err: errors.New("not configured")}
	}
	base := t.BaseURL
	if base == "" {
		base = twilioAPIBase
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", base, t.SID)

	form := url.Values{}
	form.Set("From", t.From)
	form.Set("To", t.To)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &NotifyError{Channel: "twilio", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.SID, t.Secret)

	resp, err := t.Client.Do(req)
	if err != nil {
		return &NotifyError{Channel: "twilio", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &NotifyError{Channel: "twilio", Err: fmt.Errorf("status %s", resp.Status)}
	}
	return nil
}
