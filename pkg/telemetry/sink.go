package telemetry

import (
	"context"
	"log/slog"
)

// Sink receives errors and warnings raised outside of a navigation, such as
// handler panics or suspicious configuration.
type Sink interface {
	OnError(err error, info string)
	OnWarning(msg, trace string)
}

// LogSink reports to a slog.Logger. It only writes when enabled, which the
// shell ties to debug logging.
type LogSink struct {
	logger  *slog.Logger
	enabled bool
}

// NewLogSink creates a sink. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger, enabled bool) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, enabled: enabled}
}

// OnError implements Sink.
func (s *LogSink) OnError(err error, info string) {
	if !s.enabled {
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelError, "shell error",
		slog.Any("error", err),
		slog.String("info", info),
	)
}

// OnWarning implements Sink.
func (s *LogSink) OnWarning(msg, trace string) {
	if !s.enabled {
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, "shell warning",
		slog.String("message", msg),
		slog.String("trace", trace),
	)
}

// Enabled reports whether the sink writes anything.
func (s *LogSink) Enabled() bool {
	return s.enabled
}

type discard struct{}

func (discard) OnError(error, string)    {}
func (discard) OnWarning(string, string) {}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}
