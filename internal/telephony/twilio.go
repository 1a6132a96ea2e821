// Package telephony places outbound reminder calls through Twilio and models
// the Twilio Media Streams wire format.
package telephony

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"reminderapi/internal/config"
)

// StatusCallbackEvents are the call progress events Twilio reports back.
var StatusCallbackEvents = []string{"initiated", "ringing", "answered", "completed"}

// TerminalStatuses are the call statuses that end a call without a conversation.
var TerminalStatuses = map[string]bool{
	"busy":      true,
	"no-answer": true,
	"failed":    true,
	"canceled":  true,
}

// OutboundCall describes one call to place.
type OutboundCall struct {
	To                string
	From              string
	TwiMLURL          string
	StatusCallbackURL string
}

// Dialer places outbound calls.
type Dialer interface {
	// Dial places the call and returns the provider call SID.
	Dial(ctx context.Context, call OutboundCall) (string, error)
}

type callCreator interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

type twilioDialer struct {
	api callCreator
}

// NewTwilioDialer returns a Dialer backed by the Twilio REST API.
func NewTwilioDialer(cfg config.TwilioConfig) (Dialer, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio credentials are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &twilioDialer{api: client.Api}, nil
}

// Dial creates the call. The Twilio client does not accept a context, so ctx
// is only checked before the request is sent.
func (d *twilioDialer) Dial(ctx context.Context, call OutboundCall) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(call.To)
	params.SetFrom(call.From)
	params.SetUrl(call.TwiMLURL)
	params.SetStatusCallback(call.StatusCallbackURL)
	params.SetStatusCallbackEvent(StatusCallbackEvents)

	resp, err := d.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio create call: %w", err)
	}
	if resp == nil || resp.Sid == nil {
		return "", errors.New("twilio create call: empty call sid")
	}
	return *resp.Sid, nil
}
