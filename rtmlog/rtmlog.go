// Package rtmlog provides the process-wide structured logger used by the
// dispatch table's fatal irrevocability path and by the bench coordinator;
// the algorithms and the adaptivity controller do not log. It replaces the
// teacher's clog package (a thin wrapper over stdlib log.Logger with
// Info/Error/Debug and an OpenDebug/CloseDebug toggle) with
// go.uber.org/zap, matching the structured-logging idiom the rest of the
// retrieved pack uses for the same Info/Error/Debug shape.
package rtmlog

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.Logger
)

// L returns the process-wide logger, built once. RSTM_DEBUG=1 selects
// zap.NewDevelopment (human-readable, debug level), the same toggle the
// teacher's OpenDebug/CloseDebug pair provided; anything else builds
// zap.NewProduction (JSON, info level).
func L() *zap.Logger {
	once.Do(func() {
		var err error
		if os.Getenv("RSTM_DEBUG") == "1" {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// Fatal logs at fatal level and terminates the process, the role the
// teacher's clog.Error (itself a log.Fatalf) played for spec §7's
// "unsupported" error kind: irrevocability escalation requested on an
// algorithm that cannot honor it.
func Fatal(msg string, fields ...zap.Field) {
	L().Fatal(msg, fields...)
}
