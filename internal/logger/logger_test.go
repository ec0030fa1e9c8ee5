package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestZapAdapterWritesStructuredField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	z := New(zap.New(core).Sugar())

	z.ErrorObj("request failed", "request_error", map[string]any{"status": 401})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "request failed" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	if _, ok := entries[0].ContextMap()["request_error"]; !ok {
		t.Fatalf("missing request_error field: %#v", entries[0].ContextMap())
	}
}

func TestPackageHelpersAreSafeBeforeInit(t *testing.T) {
	prev := S
	S = nil
	defer func() { S = prev }()

	InfoObj("noop", "k", 1)
	ErrorObj("noop", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}
