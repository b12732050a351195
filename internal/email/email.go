// Package email delivers the account emails: confirmation and password reset.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Message is one outgoing email. Kind labels it for tagging and logs.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Kind    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes emails to the log instead of delivering them, so links
// can be copied from the console during local development.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email not sent (local)",
		"kind", msg.Kind, "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}

type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	api    emailAPI
	from   string
	logger *slog.Logger
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.Kind != "" {
		req.Tags = []resend.Tag{{Name: "kind", Value: msg.Kind}}
	}

	resp, err := s.api.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	s.logger.DebugContext(ctx, "email sent", "kind", msg.Kind, "id", resp.Id)
	return nil
}

// NewSender picks the LogSender for ENV=local and Resend everywhere else.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	logger = logger.With("component", "email")
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{api: resend.NewClient(apiKey).Emails, from: from, logger: logger}
}
