package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	runs     atomic.Int32
	behavior func(run int32) error
}

func (w *countingWorker) Run(ctx context.Context) error {
	return w.behavior(w.runs.Add(1))
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func TestSupervisor_RestartsCrashedWorker(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(testLogger(), 5*time.Millisecond)

	worker := &countingWorker{}
	worker.behavior = func(run int32) error {
		if run < 3 {
			return fmt.Errorf("crash %d", run)
		}
		return nil
	}
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not drain")
	}
	req.EqualValues(3, worker.runs.Load())
}

func TestSupervisor_RecoversPanics(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(testLogger(), 5*time.Millisecond)

	worker := &countingWorker{}
	worker.behavior = func(run int32) error {
		if run == 1 {
			panic("boom")
		}
		return nil
	}
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not survive the panic")
	}
	req.EqualValues(2, worker.runs.Load())
}

func TestSupervisor_StopCancelsLongRunningWorkers(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(testLogger(), 5*time.Millisecond)

	started := make(chan struct{})
	worker := &countingWorker{}
	worker.behavior = func(run int32) error {
		close(started)
		return nil
	}
	blocking := &blockingWorker{started: make(chan struct{})}
	sup.Add(worker, blocking)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	<-started
	<-blocking.started
	sup.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
	req.EqualValues(1, worker.runs.Load())
}

type blockingWorker struct {
	started chan struct{}
}

func (w *blockingWorker) Run(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	return ctx.Err()
}
