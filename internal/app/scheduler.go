package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScheduler warms the reference caches once at startup and schedules a
// daily pre-market refresh so the first request of the day never pays the
// bulk-load latency. KRX publishes the prior session's data overnight;
// 07:30 KST comfortably precedes the 09:00 open.
func (a *App) StartScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	go func() {
		warmCtx, warmCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer warmCancel()
		a.Reference.Warm(warmCtx)
	}()

	location, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		location = time.UTC
	}

	c := cron.New(cron.WithLocation(location))
	_, err = c.AddFunc("30 7 * * *", func() {
		a.Logger.Info().Msg("Scheduled reference refresh starting")
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer refreshCancel()
		a.Reference.Warm(refreshCtx)
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Reference refresh schedule rejected")
		return
	}

	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	a.Logger.Info().Str("schedule", "30 7 * * * Asia/Seoul").Msg("Reference refresh scheduled")
}
