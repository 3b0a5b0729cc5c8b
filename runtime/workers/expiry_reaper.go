package workers

import (
	"context"
	"log/slog"
	"time"

	"ephemeral-chat/contract"
	"ephemeral-chat/observability"
	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
)

var _ contract.Worker = (*ExpiryReaper)(nil)

// ExpiryReaper physically removes the messages whose TTL elapsed.
// Reads already hide them, the reaper only bounds how long they stay on disk.
// It never goes through the conversation shards.
type ExpiryReaper struct {
	sweeper  contract.ExpiredMessageSweeper
	interval time.Duration
	cron     string
	metrics  *observability.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// NewExpiryReaper A non-empty cron expression takes precedence over interval.
func NewExpiryReaper(
	sweeper contract.ExpiredMessageSweeper,
	interval time.Duration,
	cron string,
	metrics *observability.Metrics,
	log *slog.Logger) *ExpiryReaper {
	return &ExpiryReaper{
		sweeper:  sweeper,
		interval: interval,
		cron:     cron,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// Run sweeps once at start, so that a backlog left by downtime is not kept
// for a whole period, then follows the schedule.
func (r *ExpiryReaper) Run(ctx context.Context) error {
	r.Sweep()
	if r.cron != "" {
		return r.runCron(ctx)
	}
	return r.runInterval(ctx)
}

func (r *ExpiryReaper) runInterval(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping expiry reaper")
			return ctx.Err()
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *ExpiryReaper) runCron(ctx context.Context) error {
	for {
		wait := r.interval
		next, err := gronx.NextTickAfter(r.cron, r.now(), false)
		if err != nil {
			r.log.Error("Cannot compute next sweep, falling back to interval",
				"cron", r.cron, "error", err, "interval", r.interval)
		} else {
			wait = time.Until(next)
		}

		timer := time.NewTimer(max(wait, time.Second))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Debug("Stopping expiry reaper")
			return ctx.Err()
		case <-timer.C:
			r.Sweep()
		}
	}
}

// Sweep runs one pass. A failure is logged and counted, the next tick runs normally.
func (r *ExpiryReaper) Sweep() int {
	start := r.now()
	removed, err := r.sweeper.DeleteExpired(start)
	if err != nil {
		r.log.Error("Expiry sweep failed", "removed", removed, "error", err)
		if r.metrics != nil {
			r.metrics.ReaperRuns.WithLabelValues("failure").Inc()
			r.metrics.MessagesExpired.Add(float64(removed))
		}
		return removed
	}
	if r.metrics != nil {
		r.metrics.ReaperRuns.WithLabelValues("success").Inc()
		r.metrics.MessagesExpired.Add(float64(removed))
	}
	if removed > 0 {
		r.log.Info("Expired messages swept",
			"count", humanize.Comma(int64(removed)),
			"took", time.Since(start))
	} else {
		r.log.Debug("No expired message to sweep")
	}
	return removed
}
