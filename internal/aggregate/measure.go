package aggregate

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// measure logs how long an operation took and how much the heap grew.
// Usage: defer measure("name")()
func measure(name string) func() {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return func() {}
	}

	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()
	slog.Debug("Operation started", "operation", name)

	return func() {
		var after runtime.MemStats
		runtime.ReadMemStats(&after)
		slog.Debug("Operation finished",
			"operation", name,
			"duration", time.Since(start),
			"heap_delta_mb", float64(int64(after.HeapAlloc)-int64(before.HeapAlloc))/1024/1024,
		)
	}
}
