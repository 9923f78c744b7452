package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/samvad-hq/jsonfetch/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestInitFiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitTo(&config.Config{AppName: "jsonfetch", LogLevel: "warn"}, &buf)
	if err != nil {
		t.Fatalf("InitTo: %v", err)
	}
	t.Cleanup(func() { S = nil })

	log.InfoObj("hidden", "k", "v")
	log.WarnObj("visible", "endpoint", map[string]any{"id": "dog-breeds"})
	_ = Close()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"visible"`) || !strings.Contains(out, `"id":"dog-breeds"`) {
		t.Fatalf("expected structured warn line, got %s", out)
	}
	if !strings.Contains(out, `"app":"jsonfetch"`) {
		t.Fatalf("expected app field, got %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.ErrorLevel,
		"verbose": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultLevelHidesWarnings(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitTo(&config.Config{AppName: "jsonfetch"}, &buf)
	if err != nil {
		t.Fatalf("InitTo: %v", err)
	}
	t.Cleanup(func() { S = nil })

	log.WarnObj("sink slow", "k", "v")
	log.DebugObj("endpoint fetch failed", "k", "v")
	_ = Close()

	if buf.Len() != 0 {
		t.Fatalf("expected nothing below error at the default level, got %s", buf.String())
	}
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	S = nil
	InfoObj("noop", "k", 1)
	ErrorObj("noop", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}
