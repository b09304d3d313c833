package util

import (
	"log/slog"
	"time"
)

// Trace 记录一段处理的耗时，用法：defer util.Trace("remove background")()
func Trace(msg string) func() {
	start := time.Now()
	return func() {
		slog.Debug(msg, "elapsed", time.Since(start))
	}
}
