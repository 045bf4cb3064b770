package telemetry

import (
	"context"
	"log/slog"

	"github.com/vango-dev/evalboard/pkg/router"
)

// LogObserver writes one "navigation" record per event. Committed
// navigations log at debug, aborted at warn and failed at error level.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a log observer. A nil logger means slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

// ObserveNavigation implements router.Observer.
func (o *LogObserver) ObserveNavigation(ctx context.Context, ev router.Event) {
	level := slog.LevelDebug
	switch ev.Status {
	case router.StatusAborted:
		level = slog.LevelWarn
	case router.StatusFailed:
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("path", ev.Path),
		slog.String("requested", ev.Requested),
		slog.String("origin", ev.Origin.String()),
		slog.String("status", ev.Status.String()),
		slog.Int("hops", ev.Hops),
		slog.Duration("duration", ev.Duration),
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.Any("error", ev.Err))
	}
	o.logger.LogAttrs(ctx, level, "navigation", attrs...)
}

// Observers fans events out to every non-nil observer, in order.
func Observers(observers ...router.Observer) router.Observer {
	list := make([]router.Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return router.ObserverFunc(func(ctx context.Context, ev router.Event) {
		for _, o := range list {
			o.ObserveNavigation(ctx, ev)
		}
	})
}
