package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNew_JSONIncludesComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentDues, Format: "json", Output: &buf})
	l.Info("payment launched", FieldMonth, "3/2024")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentDues || rec[FieldMonth] != "3/2024" {
		t.Fatalf("record=%v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{"": slog.LevelInfo, "DEBUG": slog.LevelDebug, "warn": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("ParseLevel(loud) err=nil, want error")
	}
}

func TestFromContext_FallsBack(t *testing.T) {
	t.Parallel()

	if l := FromContext(context.Background()); l == nil || l.Logger == nil {
		t.Fatalf("FromContext() returned nil logger")
	}
	want := Nop().WithComponent(ComponentHTTP)
	if got := FromContext(IntoContext(context.Background(), want)); got != want {
		t.Fatalf("FromContext() did not return stored logger")
	}
}
