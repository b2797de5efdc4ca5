package main

import (
	"context"
	"runtime"

	"github.com/go-co-op/gocron/v2"

	service "github.com/okian/holotrumps/internal/app"
	"github.com/okian/holotrumps/internal/config"
	"github.com/okian/holotrumps/pkg/logger"
	"github.com/okian/holotrumps/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

// startJobs schedules the periodic background work: entity count gauges and
// runtime metrics.
func startJobs(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if cfg.StatsRefreshInterval > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(cfg.StatsRefreshInterval),
			gocron.NewTask(func() {
				if err := svc.RefreshEntityGauges(ctx); err != nil {
					log.Warn(ctx, "entity gauge refresh failed", logger.Error(err))
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, err
		}
	}

	_, err = sched.NewJob(
		gocron.DurationJob(metrics.RefreshInterval()),
		gocron.NewTask(updateSystemMetrics),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
