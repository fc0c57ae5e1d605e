// Package runner provides process lifecycle management for the catalog
// daemon. Includes graceful shutdown handling for production deployments.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a function that shuts down a component gracefully.
type ShutdownFunc func(ctx context.Context) error

// WorkerFunc is a long-running component. It blocks until its context is
// cancelled and returns the reason it stopped.
type WorkerFunc func(ctx context.Context) error

// Runner supervises long-running workers and coordinates graceful shutdown.
type Runner struct {
	shutdownTimeout time.Duration
	logger          *slog.Logger
	workers         []namedWorker
	shutdownFuncs   []ShutdownFunc
	mu              sync.Mutex
}

type namedWorker struct {
	name string
	fn   WorkerFunc
}

// New creates a new Runner instance.
func New(shutdownTimeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		shutdownFuncs:   make([]ShutdownFunc, 0),
	}
}

// AddWorker registers a long-running worker to be started by Run.
func (r *Runner) AddWorker(name string, fn WorkerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = append(r.workers, namedWorker{name: name, fn: fn})
}

// OnShutdown registers a function to be called during graceful shutdown.
// Shutdown functions are called in reverse order (LIFO). This allows
// upstream components to be registered first and shut down last.
func (r *Runner) OnShutdown(name string, fn ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdownFuncs = append(r.shutdownFuncs, func(ctx context.Context) error {
		r.logger.Info("shutting down component", "name", name)
		if err := fn(ctx); err != nil {
			r.logger.Error("component shutdown error", "name", name, "error", err)
			return err
		}
		r.logger.Info("component stopped", "name", name)
		return nil
	})
}

// Run starts all registered workers and blocks until a shutdown signal is
// received or a worker fails. It handles graceful shutdown on SIGINT/SIGTERM.
func (r *Runner) Run() error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	workerErr := make(chan error, len(r.workers))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.mu.Lock()
	workers := r.workers
	r.mu.Unlock()

	for _, worker := range workers {
		worker := worker
		go func() {
			r.logger.Info("worker starting", "name", worker.name)
			if err := worker.fn(ctx); err != nil && err != context.Canceled {
				workerErr <- fmt.Errorf("worker %s: %w", worker.name, err)
			}
		}()
	}

	select {
	case err := <-workerErr:
		r.logger.Error("worker failed, shutting down", "error", err)
		if shutdownErr := r.gracefulShutdown(); shutdownErr != nil {
			r.logger.Error("shutdown after worker failure also failed", "error", shutdownErr)
		}
		return err
	case sig := <-shutdown:
		r.logger.Info("shutdown signal received", "signal", sig.String())
		return r.gracefulShutdown()
	}
}

// gracefulShutdown stops all registered components in reverse order.
func (r *Runner) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer cancel()

	r.mu.Lock()
	funcs := r.shutdownFuncs
	r.mu.Unlock()

	r.logger.Info("stopping registered components",
		"count", len(funcs),
		"timeout", r.shutdownTimeout,
	)

	var errs []error

	// Reverse order - last registered shuts down first
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		r.logger.Error("shutdown completed with errors", "error_count", len(errs))
		return errs[0]
	}

	r.logger.Info("stopped gracefully")
	return nil
}
