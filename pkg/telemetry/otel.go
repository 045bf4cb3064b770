package telemetry

import (
	"context"
	"fmt"

	"github.com/vango-dev/evalboard/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "evalboard"

// OTelConfig configures the OpenTelemetry observer and guard wrapper.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "evalboard").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// AttributeExtractor adds custom attributes to each navigation span.
	AttributeExtractor func(ev router.Event) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry integration.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ev router.Event) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func resolveOTel(opts []OTelOption) (OTelConfig, trace.Tracer) {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return config, tp.Tracer(config.TracerName)
}

// OpenTelemetry returns an observer recording one span per navigation.
// The span covers the navigation from start to finish, using the event
// timestamps, so it can be emitted after the fact.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before serving:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) router.Observer {
	config, tracer := resolveOTel(opts)

	return router.ObserverFunc(func(ctx context.Context, ev router.Event) {
		attrs := []attribute.KeyValue{
			attribute.String("evalboard.path", ev.Path),
			attribute.String("evalboard.requested", ev.Requested),
			attribute.String("evalboard.origin", ev.Origin.String()),
			attribute.String("evalboard.status", ev.Status.String()),
			attribute.Int("evalboard.hops", ev.Hops),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ev)...)
		}

		_, span := tracer.Start(ctx, spanName(ev.Path),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
			trace.WithTimestamp(ev.Started),
		)

		switch {
		case ev.Err != nil:
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, ev.Err.Error())
		case ev.Status == router.StatusCommitted:
			span.SetStatus(codes.Ok, "")
		}

		span.End(trace.WithTimestamp(ev.Started.Add(ev.Duration)))
	})
}

// TraceGuard wraps g so that every check runs inside a span named after
// the guard. The span records the verdict and any error.
func TraceGuard(name string, g router.Guard, opts ...OTelOption) router.Guard {
	_, tracer := resolveOTel(opts)

	return router.GuardFunc(func(ctx context.Context, to router.Request, from router.State) (router.Decision, error) {
		ctx, span := tracer.Start(ctx, "guard "+name,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("evalboard.guard", name),
				attribute.String("evalboard.to", to.Path),
				attribute.String("evalboard.from", from.Path),
			),
		)
		defer span.End()

		d, err := g.Check(ctx, to, from)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return d, err
		}

		span.SetAttributes(attribute.String("evalboard.verdict", d.Verdict.String()))
		if d.Verdict == router.VerdictRedirect {
			span.SetAttributes(attribute.String("evalboard.redirect", d.Target))
		}
		return d, nil
	})
}

func spanName(path string) string {
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("navigate %s", path)
}
