package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"
)

// Func тело фоновой задачи
type Func func(ctx context.Context) error

// Scheduler запускает фоновые задачи по расписанию robfig/cron
// Перекрывающиеся запуски одной задачи пропускаются (SkipIfStillRunning),
// при наличии Locker задачу в один момент выполняет одна реплика
type Scheduler struct {
	cron    *cron.Cron
	locker  Locker
	lockTTL time.Duration
	metrics Metrics
	log     Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option опция планировщика
type Option func(*Scheduler)

// WithLocker включает распределённую блокировку задач
func WithLocker(locker Locker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithMetrics включает учёт запусков
func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// NewScheduler создает планировщик
func NewScheduler(log Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		lockTTL: time.Minute,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	cronLog := &cronLogger{log: log}
	s.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		),
	)

	return s
}

// Register добавляет задачу name с расписанием spec ("@every 30s", "0 * * * *")
func (s *Scheduler) Register(name, spec string, fn Func) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("jobs: register %s with schedule %q: %w", name, spec, err)
	}

	s.log.Info("Job %s registered with schedule %s", name, spec)
	return nil
}

// Start запускает планировщик в фоне
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop отменяет контекст выполняющихся задач и ждёт их завершения, но не дольше ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(name string, fn Func) {
	ctx, cancel := context.WithTimeout(s.ctx, s.lockTTL)
	defer cancel()

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, name, s.lockTTL)
		switch {
		case err != nil:
			// Корректность обеспечивают условные обновления в БД, блокировка лишь экономит работу
			s.log.Warn("Job %s: lock unavailable, running without it: %v", name, err)
		case !ok:
			s.observe(name, resultSkipped)
			return
		default:
			defer func() {
				if err := unlock(context.Background()); err != nil {
					s.log.Warn("Job %s: failed to release lock: %v", name, err)
				}
			}()
		}
	}

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.log.Error("Job %s failed after %s: %v", name, time.Since(start), err)
		s.observe(name, resultError)
		return
	}

	s.observe(name, resultSuccess)
}

func (s *Scheduler) observe(name, result string) {
	if s.metrics != nil {
		s.metrics.IncJobRun(name, result)
	}
}

// cronLogger адаптер Logger к cron.Logger
type cronLogger struct {
	log Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	// cron пишет в Info каждый тик, это шум
	if msg == "wake" || msg == "run" {
		return
	}
	l.log.Info("cron: %s %s", msg, formatKV(keysAndValues))
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: %s: %v %s", msg, err, formatKV(keysAndValues))
}

func formatKV(keysAndValues []interface{}) string {
	parts := make([]string, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return strings.Join(parts, " ")
}
