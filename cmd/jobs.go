package main

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/config"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/locker"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/jobs"
	publishEventsUC "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/publish_events"
	sweepExpiredHoldsUC "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/sweep_expired_holds"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/metrics"
)

const (
	jobSweepExpiredHolds = "sweep_expired_holds"
	jobMarkOverdue       = "mark_overdue_invoices"
	jobPublishEvents     = "publish_outbox_events"
)

// newScheduler регистрирует фоновые задачи; при включенном Redis задачу выполняет одна реплика
func newScheduler(
	cfg *config.Config,
	log *logger.Logger,
	metricsCollector *metrics.Metrics,
	sweep *sweepExpiredHoldsUC.UseCase,
	publish *publishEventsUC.UseCase,
) *jobs.Scheduler {
	lockTTL := time.Duration(cfg.Sweeper.LockTTLSeconds) * time.Second
	opts := []jobs.Option{jobs.WithMetrics(metricsCollector)}

	if cfg.Redis.Enabled {
		redisLocker := locker.NewRedisLocker(locker.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisLocker.Ping(pingCtx); err != nil {
			log.Warn("Redis is not reachable at %s, jobs will run without lock until it is: %v", cfg.Redis.Addr, err)
		}
		cancel()

		opts = append(opts, jobs.WithLocker(redisLocker, lockTTL))
		log.Info("Job locking via Redis at %s (ttl=%s)", cfg.Redis.Addr, lockTTL)
	}

	scheduler := jobs.NewScheduler(log, opts...)

	mustRegister(log, scheduler, jobSweepExpiredHolds, cfg.Sweeper.HoldsSchedule, func(ctx context.Context) error {
		_, err := sweep.Execute(ctx, time.Now().UTC())
		return err
	})
	mustRegister(log, scheduler, jobMarkOverdue, cfg.Sweeper.OverdueSchedule, func(ctx context.Context) error {
		_, err := sweep.MarkOverdue(ctx, time.Now().UTC())
		return err
	})
	mustRegister(log, scheduler, jobPublishEvents, cfg.Sweeper.OutboxSchedule, func(ctx context.Context) error {
		_, err := publish.Execute(ctx)
		return err
	})

	return scheduler
}

func mustRegister(log *logger.Logger, s *jobs.Scheduler, name, spec string, fn jobs.Func) {
	if err := s.Register(name, spec, fn); err != nil {
		log.Fatal("Failed to register job: %v", err)
	}
}
