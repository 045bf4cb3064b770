// Package telemetry provides observability for navigation.
//
// Navigation observers (router.Observer) receive one event per navigation
// attempt:
//
//   - LogObserver writes a structured slog record
//   - Prometheus records counters and histograms
//   - OpenTelemetry records a span
//   - Observers fans an event out to several observers
//
// A Sink receives framework-level errors and warnings. LogSink replaces the
// console error and warning handlers of a browser shell and is silent unless
// debug logging is enabled.
//
// # Usage
//
//	metrics := telemetry.NewPrometheus(telemetry.WithRegistry(reg))
//	r := router.New(table, router.WithObserver(telemetry.Observers(
//	    telemetry.NewLogObserver(logger),
//	    metrics,
//	    telemetry.OpenTelemetry(),
//	)))
//
// Expose the metrics with promhttp:
//
//	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package telemetry
