package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	KindConfirmation  = "confirmation"
	KindPasswordReset = "password_reset"
)

type template struct {
	subject string
	path    string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

var templates = map[string]template{
	KindConfirmation: {
		subject: "Confirm your email",
		path:    "/confirm-email",
		html: htmltemplate.Must(htmltemplate.New(KindConfirmation).Parse(
			`<p>Welcome! Confirm your email address to activate your account.</p>` +
				`<p><a href="{{.Link}}">Confirm email</a></p>` +
				`<p>This link expires in {{.Expires}}. If you did not sign up, ignore this email.</p>`)),
		text: texttemplate.Must(texttemplate.New(KindConfirmation).Parse(
			"Welcome! Confirm your email address to activate your account:\n\n{{.Link}}\n\n" +
				"This link expires in {{.Expires}}. If you did not sign up, ignore this email.\n")),
	},
	KindPasswordReset: {
		subject: "Reset your password",
		path:    "/reset-password",
		html: htmltemplate.Must(htmltemplate.New(KindPasswordReset).Parse(
			`<p>We received a request to reset your password.</p>` +
				`<p><a href="{{.Link}}">Choose a new password</a></p>` +
				`<p>This link expires in {{.Expires}}. If you did not ask for a reset, ignore this email.</p>`)),
		text: texttemplate.Must(texttemplate.New(KindPasswordReset).Parse(
			"We received a request to reset your password. Choose a new one here:\n\n{{.Link}}\n\n" +
				"This link expires in {{.Expires}}. If you did not ask for a reset, ignore this email.\n")),
	},
}

// Notifier turns account events into emails with a link back to the frontend.
type Notifier struct {
	sender  Sender
	baseURL string
}

func NewNotifier(sender Sender, appBaseURL string) *Notifier {
	return &Notifier{sender: sender, baseURL: strings.TrimRight(appBaseURL, "/")}
}

func (n *Notifier) SendConfirmation(ctx context.Context, to, rawToken string, ttl time.Duration) error {
	return n.send(ctx, KindConfirmation, to, rawToken, ttl)
}

func (n *Notifier) SendPasswordReset(ctx context.Context, to, rawToken string, ttl time.Duration) error {
	return n.send(ctx, KindPasswordReset, to, rawToken, ttl)
}

func (n *Notifier) send(ctx context.Context, kind, to, rawToken string, ttl time.Duration) error {
	t := templates[kind]
	data := struct {
		Link    string
		Expires string
	}{
		Link:    n.baseURL + t.path + "?token=" + url.QueryEscape(rawToken),
		Expires: humanize(ttl),
	}

	var html, text bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return fmt.Errorf("render %s email: %w", kind, err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return fmt.Errorf("render %s email: %w", kind, err)
	}

	msg := Message{To: to, Subject: t.subject, HTML: html.String(), Text: text.String(), Kind: kind}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	return nil
}

func humanize(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
