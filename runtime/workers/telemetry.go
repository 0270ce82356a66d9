package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-session/observability"

	"github.com/shirou/gopsutil/process"
)

// StatsProvider returns the engine counters to report.
type StatsProvider func() observability.Snapshot

// TelemetryWorker periodically logs engine counters together with the
// process's RSS and CPU usage. Purely observational; losing a tick is
// harmless.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    StatsProvider
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, stats StatsProvider) *TelemetryWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TelemetryWorker{log: log, interval: interval, stats: stats}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu := selfStats(proc)
			counters := w.stats()
			w.log.Info("Session telemetry",
				"sent", counters.MessagesSent,
				"replies", counters.RepliesReceived,
				"acks", counters.AcksAdvanced,
				"saves", counters.Saves,
				"save_failures", counters.SaveFailures,
				"rss_bytes", rss,
				"cpu_percent", cpu,
			)
		}
	}
}

func selfStats(proc *process.Process) (uint64, float64) {
	var rss uint64
	if mem, err := proc.MemoryInfo(); err == nil {
		rss = mem.RSS
	}
	cpu, _ := proc.CPUPercent()
	return rss, cpu
}
