package trace

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/qiniu/x/xlog"
)

// TraceID identifies one updater invocation in the logs
type TraceID string

// Trace prefixes, one per entry point
const (
	TracePrefix      = "ghostsite"
	BlogPrefix       = "blog"
	ArtPrefix        = "art"
	MetricsPrefix    = "metrics"
	DeployPrefix     = "deploy"
	AutonomousPrefix = "update"
	VerifyPrefix     = "verify"
	HistoryPrefix    = "history"
)

func generateTraceID() TraceID {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// fall back to the clock if the random source is unavailable
		return TraceID(fmt.Sprintf("%s_%d", TracePrefix, time.Now().UnixNano()))
	}
	return TraceID(fmt.Sprintf("%s_%x", TracePrefix, bytes))
}

// NewTraceID creates a trace id for the given entry point
func NewTraceID(prefix string) TraceID {
	return TraceID(fmt.Sprintf("%s_%s", prefix, generateTraceID()))
}

type contextKey string

const traceLoggerKey contextKey = "trace_logger"

// NewContext attaches a logger tagged with traceID to ctx
func NewContext(ctx context.Context, traceID TraceID) context.Context {
	return context.WithValue(ctx, traceLoggerKey, xlog.New(string(traceID)))
}

// FromContext returns the trace logger in ctx. A context without one gets a fresh
// logger so callers never need to nil-check.
func FromContext(ctx context.Context) *xlog.Logger {
	if logger, ok := ctx.Value(traceLoggerKey).(*xlog.Logger); ok {
		return logger
	}
	return xlog.New(string(generateTraceID()))
}

// GetTraceID returns the trace id carried by ctx, or "" if there is none
func GetTraceID(ctx context.Context) TraceID {
	if logger, ok := ctx.Value(traceLoggerKey).(*xlog.Logger); ok {
		return TraceID(logger.ReqId)
	}
	return ""
}
