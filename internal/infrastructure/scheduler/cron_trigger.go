package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Time of the daily audit (24h clock)
	DailyHour   int
	DailyMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyHour:     3, // after the last show closes
		DailyMinute:   0,
		CheckInterval: time.Minute,
	}
}

// ParseCronSchedule reads the minute and hour fields of a five-field cron
// expression ("30 3 * * *"). Only daily schedules are supported; the other
// fields are ignored. An empty expression yields the default 03:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	def := DefaultCronTriggerConfig()
	hour, minute = def.DailyHour, def.DailyMinute

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if minute, err = strconv.Atoi(parts[0]); err != nil {
			return def.DailyHour, def.DailyMinute, fmt.Errorf("%w: minute %q", ErrInvalidSchedule, parts[0])
		}
	}
	if parts[1] != "*" {
		if hour, err = strconv.Atoi(parts[1]); err != nil {
			return def.DailyHour, def.DailyMinute, fmt.Errorf("%w: hour %q", ErrInvalidSchedule, parts[1])
		}
	}

	if minute < 0 || minute > 59 {
		return def.DailyHour, def.DailyMinute, fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidSchedule, minute)
	}
	if hour < 0 || hour > 23 {
		return def.DailyHour, def.DailyMinute, fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidSchedule, hour)
	}

	return hour, minute, nil
}

// CronTrigger submits a full ledger audit once a day
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Ledger audit trigger started",
		zap.Int("daily_hour", c.config.DailyHour),
		zap.Int("daily_minute", c.config.DailyMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Ledger audit trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.checkAndTrigger(now)
		}
	}
}

// checkAndTrigger submits the daily audit when now matches the schedule and
// the audit has not run yet today. It reports whether a job was submitted.
func (c *CronTrigger) checkAndTrigger(now time.Time) bool {
	if now.Hour() != c.config.DailyHour || now.Minute() != c.config.DailyMinute {
		return false
	}

	currentDate := now.Format("2006-01-02")
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily ledger audit")
	if _, err := c.scheduler.ScheduleAudit(); err != nil {
		c.logger.Error("Failed to schedule daily ledger audit", zap.Error(err))
		return false
	}
	return true
}
