package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/resend/resend-go/v2"
)

type fakeEmailAPI struct {
	req *resend.SendEmailRequest
	err error
}

func (f *fakeEmailAPI) SendWithContext(_ context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "msg_1"}, nil
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestResendSender_BuildsRequest(t *testing.T) {
	api := &fakeEmailAPI{}
	s := &ResendSender{api: api, from: "Auth <no-reply@example.com>", logger: quiet}

	err := s.Send(context.Background(), Message{
		To: "a@x.com", Subject: "Confirm your email", HTML: "<p>hi</p>", Text: "hi", Kind: KindConfirmation,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := api.req
	if req.From != "Auth <no-reply@example.com>" || len(req.To) != 1 || req.To[0] != "a@x.com" {
		t.Errorf("unexpected addressing: from=%q to=%v", req.From, req.To)
	}
	if req.Html != "<p>hi</p>" || req.Text != "hi" {
		t.Errorf("unexpected bodies: html=%q text=%q", req.Html, req.Text)
	}
	if len(req.Tags) != 1 || req.Tags[0].Value != KindConfirmation {
		t.Errorf("tags = %+v, want kind=%s", req.Tags, KindConfirmation)
	}
}

func TestResendSender_WrapsError(t *testing.T) {
	apiErr := errors.New("422 invalid from")
	s := &ResendSender{api: &fakeEmailAPI{err: apiErr}, from: "x", logger: quiet}

	if err := s.Send(context.Background(), Message{To: "a@x.com"}); !errors.Is(err, apiErr) {
		t.Errorf("want wrapped apiErr, got %v", err)
	}
}

func TestNewSender_LocalLogsInstead(t *testing.T) {
	if _, ok := NewSender("local", "", "", quiet).(*LogSender); !ok {
		t.Error("local env should log emails")
	}
	if _, ok := NewSender("production", "re_key", "a@x.com", quiet).(*ResendSender); !ok {
		t.Error("production env should use Resend")
	}
}
