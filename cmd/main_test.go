package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/tinoosan/budget/internal/ledger"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in).Level(); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPeriodOrCurrent(t *testing.T) {
	current := ledger.Period{Year: 2025, Month: time.March}
	t.Cleanup(func() { flagPeriod = "" })

	flagPeriod = ""
	if p, err := periodOrCurrent(current); err != nil || p != current {
		t.Fatalf("default period = %v, %v", p, err)
	}
	flagPeriod = "2024-7"
	if p, err := periodOrCurrent(current); err != nil || p != (ledger.Period{Year: 2024, Month: time.July}) {
		t.Fatalf("explicit period = %v, %v", p, err)
	}
	flagPeriod = "July"
	if _, err := periodOrCurrent(current); err == nil {
		t.Fatalf("expected error for invalid period")
	}
}
