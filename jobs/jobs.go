// Package jobs holds the periodic maintenance work run by the cron scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/elevate_lms/cache"
	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

// Job is one scheduled task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

func Defaults() []Job {
	return []Job{
		{Name: "fail-stale-orders", Spec: "@every 10m", Run: FailStaleOrders},
		{Name: "expire-coupons", Spec: "@hourly", Run: ExpireCoupons},
		{Name: "purge-notifications", Spec: "@daily", Run: PurgeNotifications},
		{Name: "sweep-memory-cache", Spec: "@every 5m", Run: SweepMemoryCache},
	}
}

// FailStaleOrders fails gateway orders that were never paid.
func FailStaleOrders(ctx context.Context) error {
	n, err := services.FailStaleOrders(ctx, config.Duration("STALE_ORDER_AGE", 30*time.Minute))
	if err == nil && n > 0 {
		logger.Module("jobs").Info("failed stale orders", zap.Int("count", n))
	}
	return err
}

func ExpireCoupons(ctx context.Context) error {
	n, err := services.DeactivateExpiredCoupons(ctx)
	if err == nil && n > 0 {
		logger.Module("jobs").Info("deactivated expired coupons", zap.Int64("count", n))
	}
	return err
}

func PurgeNotifications(ctx context.Context) error {
	n, err := services.PurgeReadNotifications(ctx, 7*24*time.Hour)
	if err == nil && n > 0 {
		logger.Module("jobs").Info("purged read notifications", zap.Int64("count", n))
	}
	return err
}

// SweepMemoryCache drops expired OTP and limiter entries when Redis is not
// configured. Redis expires keys itself.
func SweepMemoryCache(context.Context) error {
	if mem, ok := cache.Store.(*cache.MemoryStorage); ok {
		if n := mem.Sweep(); n > 0 {
			logger.Module("jobs").Debug("swept memory cache", zap.Int("count", n))
		}
	}
	return nil
}

// Start registers the jobs and starts the scheduler. Callers stop it with
// Stop() during shutdown.
func Start(jobs []Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})))
	for _, j := range jobs {
		j := j
		if _, err := c.AddFunc(j.Spec, func() { run(j) }); err != nil {
			return nil, err
		}
	}
	c.Start()
	logger.Module("jobs").Info("cron scheduler started", zap.Int("jobs", len(jobs)))
	return c, nil
}

func run(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		logger.Module("jobs").Error("job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	logger.Module("jobs").Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Module("cron").Sugar().Infow(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Module("cron").Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
