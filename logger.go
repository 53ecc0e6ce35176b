package dataflow

import "go.uber.org/zap"

// logger is the package-wide diagnostic sink. Dropped sends, multi-emitter
// findings, and early processing-loop exits are reported here rather than
// surfaced to callers.
var logger = zap.NewNop()

// SetLogger overrides the package diagnostic logger.
//
// The default is a no-op logger.
func SetLogger(l *zap.Logger) {
	logger = l
}
