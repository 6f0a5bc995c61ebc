package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpt    asynq.RedisConnOpt
	Concurrency int
	// RecalculateCron programa TaskRecalculateAll; vacío = sin scheduler.
	RecalculateCron string
	Timezone        string
	Handlers        *Handlers
	Logger          zerolog.Logger
}

// Worker servidor asynq más el scheduler opcional.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       zerolog.Logger
}

// NewWorker construye el worker y registra la tarea programada.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("worker: handlers requeridos")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	alog := asynqLogger{zl: cfg.Logger.With().Str("component", "asynq").Logger()}
	srv := asynq.NewServer(cfg.RedisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		Logger:      alog,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			cfg.Logger.Error().Err(err).Str("task", task.Type()).Msg("tarea fallida")
		}),
	})
	mux := asynq.NewServeMux()
	cfg.Handlers.Register(mux)

	var scheduler *asynq.Scheduler
	if cfg.RecalculateCron != "" {
		loc, err := loadLocation(cfg.Timezone)
		if err != nil {
			return nil, err
		}
		scheduler = asynq.NewScheduler(cfg.RedisOpt, &asynq.SchedulerOpts{Location: loc, Logger: alog})
		if _, err := scheduler.Register(cfg.RecalculateCron, NewRecalculateAllTask()); err != nil {
			return nil, fmt.Errorf("registrar cron %q: %w", cfg.RecalculateCron, err)
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: cfg.Logger}, nil
}

func loadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("zona horaria %q: %w", tz, err)
	}
	return loc, nil
}

// Run procesa tareas hasta que ctx se cancele.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.server.Shutdown()
			return err
		}
	}
	w.log.Info().Msg("worker iniciado")
	<-ctx.Done()
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	return nil
}

// asynqLogger adapta zerolog a asynq.Logger.
type asynqLogger struct {
	zl zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.zl.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.zl.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.zl.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.zl.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.zl.Fatal().Msg(fmt.Sprint(args...)) }
