package cron

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	memclock "github.com/mfc-unidade/treasury-api/internal/adapters/memory/clock"
	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
)

type fakeRunner struct {
	mu     sync.Mutex
	months []domain.RefMonth
	err    error
}

func (f *fakeRunner) ArrearsDigest(ctx context.Context, month domain.RefMonth) (reporting.ArrearsDigest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.months = append(f.months, month)
	return reporting.ArrearsDigest{Month: month}, f.err
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler("every tuesday", &fakeRunner{}, memclock.NewManualClock(time.Now()), nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestScheduler_RunOnce_UsesCurrentMonth(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	clk := memclock.NewManualClock(time.Date(2024, 11, 30, 23, 0, 0, 0, time.UTC))
	s, err := NewScheduler("0 9 * * 1", runner, clk, nil)
	if err != nil {
		t.Fatalf("NewScheduler err=%v", err)
	}

	s.RunOnce(context.Background())
	clk.Advance(2 * time.Hour)
	runner.err = errors.New("boom")
	s.RunOnce(context.Background())

	want := []domain.RefMonth{{Month: 11, Year: 2024}, {Month: 12, Year: 2024}}
	if len(runner.months) != len(want) {
		t.Fatalf("runs=%v, want %v", runner.months, want)
	}
	for i := range want {
		if runner.months[i] != want[i] {
			t.Fatalf("run[%d]=%s, want %s", i, runner.months[i], want[i])
		}
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler("@every 1h", &fakeRunner{}, memclock.NewManualClock(time.Now()), nil)
	if err != nil {
		t.Fatalf("NewScheduler err=%v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

type panickingRunner struct{}

func (panickingRunner) ArrearsDigest(context.Context, domain.RefMonth) (reporting.ArrearsDigest, error) {
	panic("digest blew up")
}

func TestScheduler_JobPanicIsRecoveredAndLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelDebug, Output: &buf})
	s, err := NewScheduler("@every 1h", panickingRunner{}, memclock.NewManualClock(time.Now()), logger)
	if err != nil {
		t.Fatalf("NewScheduler err=%v", err)
	}

	entries := s.cron.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want 1", len(entries))
	}
	entries[0].WrappedJob.Run()

	if out := buf.String(); !strings.Contains(out, "digest blew up") || !strings.Contains(out, "component=scheduler") {
		t.Fatalf("log=%q, want recovered panic from scheduler", out)
	}
}
