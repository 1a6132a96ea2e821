package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("reminderapi/internal/service")

// Runner runs work detached from the request that triggered it and waits for
// it on shutdown.
type Runner struct {
	log *slog.Logger
	wg  sync.WaitGroup

	// tasks is cancelled only when Shutdown gives up waiting.
	tasks      context.Context
	abortTasks context.CancelFunc
	// loops is cancelled as soon as Shutdown starts and stops scheduling.
	loops     context.Context
	stopLoops context.CancelFunc
}

// NewRunner creates an idle Runner.
func NewRunner(log *slog.Logger) *Runner {
	r := &Runner{log: log.With("component", "runner")}
	r.tasks, r.abortTasks = context.WithCancel(context.Background())
	r.loops, r.stopLoops = context.WithCancel(context.Background())
	return r
}

// Go runs fn once in the background. Errors and panics are logged.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(name, r.tasks, fn)
	}()
}

// Every runs fn each interval until shutdown. A non-positive interval disables
// it. Shutdown stops new ticks; a run in flight is cancelled only if Shutdown
// gives up waiting.
func (r *Runner) Every(name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.loops.Done():
				return
			case <-ticker.C:
				r.run(name, r.tasks, fn)
			}
		}
	}()
	r.log.Info("periodic task scheduled", "task", name, "interval", interval)
}

// run executes one task in its own root span; the triggering request has
// already been answered.
func (r *Runner) run(name string, ctx context.Context, fn func(ctx context.Context) error) {
	ctx, span := tracer.Start(ctx, "background."+name,
		trace.WithNewRoot(),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()
	defer func() {
		if p := recover(); p != nil {
			span.SetStatus(codes.Error, "panic")
			r.log.Error("background task panicked", "task", name, "panic", fmt.Sprint(p))
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("background task failed", "task", name, "error", err, "duration", time.Since(start))
		return
	}
	r.log.Debug("background task done", "task", name, "duration", time.Since(start))
}

// Shutdown stops periodic tasks and waits for running ones. When ctx expires
// first, running tasks are cancelled and ctx.Err() is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.stopLoops()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.abortTasks()
		return nil
	case <-ctx.Done():
		r.abortTasks()
		<-done
		return ctx.Err()
	}
}
