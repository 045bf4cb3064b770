// Package shell hosts the evaluation dashboard.
//
// A Shell builds the view registry, the route table and the guard chain from
// an evalboard configuration, wires the log, Prometheus and OpenTelemetry
// observers, and serves:
//
//   - a history-mode page endpoint that resolves deep links (GET /*)
//   - WebSocket navigation sessions, one router per client (GET /ws)
//   - the route table and dry-run resolution under /api
//   - /healthz and /metrics
//
// Dependencies are injected rather than global. The charting handle given
// with WithCharts is passed to every view constructor:
//
//	sh, err := shell.New(cfg,
//	    shell.WithCharts(shell.ChartLibrary("echarts")),
//	    shell.WithGuard(requireLogin),
//	)
//	if err != nil {
//	    return err
//	}
//	return sh.Run(ctx)
//
// # Session protocol
//
// Clients send JSON messages:
//
//	{"type": "navigate", "path": "/performance", "origin": "user", "replace": false}
//	{"type": "back"}
//	{"type": "forward"}
//
// The server answers each with a "state", "aborted" or "error" message that
// echoes the message sequence number. A navigation sent while another is
// still running supersedes it; the older one is answered with "aborted".
package shell
