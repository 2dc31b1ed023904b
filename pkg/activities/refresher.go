package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/observability"
	"github.com/rhuss/outings/pkg/storage"
)

// refreshTimeout bounds one scheduled refresh.
const refreshTimeout = 5 * time.Minute

// Refresher replaces the activity cache with the output of its sources.
// Refreshes are serialized; a manual refresh waits for a scheduled one.
type Refresher struct {
	cache   storage.ActivityCache
	sources []Source
	logger  *slog.Logger
	now     func() time.Time

	runMu sync.Mutex

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRefresher creates a Refresher. A nil logger uses slog.Default.
func NewRefresher(cache storage.ActivityCache, sources []Source, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cache:   cache,
		sources: sources,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Refresh fetches every source and replaces the cache. A failing source is
// reported in Errors while the others still land in the cache. When every
// source fails the previous cache is kept and Success is false.
func (r *Refresher) Refresh(ctx context.Context) api.RefreshResult {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := r.now()
	var (
		all    []api.Activity
		errs   []string
		failed int
	)
	for _, src := range r.sources {
		items, err := src.Fetch(ctx)
		if err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("%s: %v", src.Name(), err))
			r.logger.Warn("activity source failed", "source", src.Name(), "error", err)
			continue
		}
		all = append(all, items...)
	}

	end := r.now()
	result := api.RefreshResult{
		Success:         true,
		TotalActivities: len(all),
		BySource:        storage.ComputeStats(all, nil).BySource,
		DurationSeconds: math.Round(end.Sub(start).Seconds()*100) / 100,
		Timestamp:       end,
		Errors:          errs,
	}

	switch {
	case len(r.sources) > 0 && failed == len(r.sources):
		result.Success = false
	default:
		if all == nil {
			all = []api.Activity{}
		}
		if err := r.cache.Replace(ctx, all, end); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, err.Error())
			r.logger.Error("activity cache write failed", "error", err)
		} else {
			observability.CachedActivities.Set(float64(len(all)))
		}
	}

	status := "success"
	if !result.Success {
		status = "failure"
	}
	observability.ActivityRefreshTotal.WithLabelValues(status).Inc()
	r.logger.Info("activity refresh completed",
		"success", result.Success,
		"total", result.TotalActivities,
		"duration", end.Sub(start))

	return result
}

// Start runs one refresh in the background and then schedules further
// refreshes. schedule is a cron expression or a Go duration.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return errors.New("refresher already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.cron = cron.New()
	r.cron.Schedule(sched, cron.FuncJob(r.runScheduled))
	r.cron.Start()

	go r.runScheduled()
	r.logger.Info("activity refresher started", "schedule", schedule, "sources", len(r.sources))
	return nil
}

// Stop cancels in-flight work and waits for running jobs to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
}

func (r *Refresher) runScheduled() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	r.Refresh(taskCtx)
}

// ParseSchedule accepts a five-field cron expression, a descriptor such as
// "@hourly", or a positive duration like "10m".
func ParseSchedule(schedule string) (cron.Schedule, error) {
	if schedule == "" {
		return nil, errors.New("empty schedule")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if sched, err := parser.Parse(schedule); err == nil {
		return sched, nil
	}
	dur, err := time.ParseDuration(schedule)
	if err != nil {
		return nil, fmt.Errorf("not a valid cron expression or duration: %q", schedule)
	}
	if dur <= 0 {
		return nil, fmt.Errorf("duration must be positive: %q", schedule)
	}
	return cron.Every(dur), nil
}
