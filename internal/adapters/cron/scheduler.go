package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mfc-unidade/treasury-api/internal/app/reporting"
	"github.com/mfc-unidade/treasury-api/internal/domain"
	applog "github.com/mfc-unidade/treasury-api/internal/platform/log"
	clockport "github.com/mfc-unidade/treasury-api/internal/ports/out/clock"
)

// DigestRunner computes and publishes the arrears digest for a month.
type DigestRunner interface {
	ArrearsDigest(ctx context.Context, month domain.RefMonth) (reporting.ArrearsDigest, error)
}

// Scheduler runs the arrears reminder on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner  DigestRunner
	clk     clockport.Clock
	log     *applog.Logger
	timeout time.Duration
}

// NewScheduler registers the digest job under spec (standard five-field cron syntax).
// The spec is read in the clock's time zone.
func NewScheduler(spec string, runner DigestRunner, clk clockport.Clock, logger *applog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = applog.Nop()
	}
	log := logger.WithComponent(applog.ComponentScheduler)
	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(clk.Now().Location()),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		runner:  runner,
		clk:     clk,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule arrears digest %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for a running job, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
		return
	}
	s.log.Info("scheduler stopped")
}

// RunOnce builds the digest for the current month. Failures are logged, not returned;
// the next tick retries.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	month := domain.RefMonthOf(s.clk.Now())
	digest, err := s.runner.ArrearsDigest(ctx, month)
	if err != nil {
		s.log.ErrorContext(ctx, "arrears digest failed", applog.FieldMonth, month.String(), applog.FieldError, err)
		return
	}
	s.log.InfoContext(ctx, "arrears digest done", applog.FieldMonth, month.String(), "teams", len(digest.Teams))
}

// cronLogger routes cron's own messages, including recovered job panics, to the component logger.
type cronLogger struct {
	log *applog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{applog.FieldError, err}, keysAndValues...)...)
}
