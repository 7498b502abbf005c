package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/dig"

	"order-notifier/internal/logx"
	"order-notifier/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// WorkerRunner runs the Kafka consumer and the optional ops HTTP server.
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun runs the worker until its context is canceled and panics on any
// other error.
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

type workerIn struct {
	dig.In
	Ctx        context.Context
	Logger     logx.Logger
	Consumer   *kafka.Consumer
	Server     *http.Server
	CloseTopic topicCloser
}

func workerRun(in workerIn) error {
	if in.Consumer == nil {
		return fmt.Errorf("kafka consumer is nil: KAFKA_BROKERS is not set")
	}
	defer closeWorker(in.Logger, in.Consumer, in.CloseTopic)

	if in.Server != nil && in.Server.Addr != "" {
		startServer(in.Server, in.Logger)
		defer gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
	}

	in.Logger.Info("order-notifier worker started")
	return in.Consumer.Run(in.Ctx)
}

func startServer(server *http.Server, logger logx.Logger) {
	go func() {
		logger.Info("ops server listening", logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server listen error", logx.Err(err))
		}
	}()
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
	}
}

func closeWorker(logger logx.Logger, consumer *kafka.Consumer, closeTopic topicCloser) {
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("kafka close error", logx.Err(err))
		}
	}
	if closeTopic != nil {
		if err := closeTopic(); err != nil {
			logger.Error("topic close error", logx.Err(err))
		}
	}
}
