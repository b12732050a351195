package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	applog "github.com/ErlanBelekov/auth-starter/internal/log"
	"github.com/ErlanBelekov/auth-starter/internal/reqctx"
)

func TestContextHandler_AddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(applog.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := reqctx.WithUserID(reqctx.WithRequestID(context.Background(), "req-9"), "user-3")
	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["request_id"] != "req-9" {
		t.Errorf("request_id = %v", rec["request_id"])
	}
	if rec["user_id"] != "user-3" {
		t.Errorf("user_id = %v", rec["user_id"])
	}
}

func TestContextHandler_OmitsMissingValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(applog.NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	logger.Info("plain")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := rec["request_id"]; ok {
		t.Error("unexpected request_id")
	}
	if rec["component"] != "test" {
		t.Errorf("component = %v", rec["component"])
	}
}
