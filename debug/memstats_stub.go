//go:build !windows

package debug

import (
	"log/slog"
	"runtime"
	"time"
)

// StartMemWatcher logs Go heap stats only; RSS queries are Windows-specific.
func StartMemWatcher(interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			logger.Info("memstats",
				slog.Int("goroutines", runtime.NumGoroutine()),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
				slog.Uint64("heap_inuse", ms.HeapInuse),
				slog.Uint64("heap_sys", ms.HeapSys),
				slog.Uint64("num_gc", uint64(ms.NumGC)),
			)
		}
	}()
}
