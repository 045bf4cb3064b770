// Package router implements client-side navigation for the dashboard shell.
//
// The package provides:
//   - A route Table built from static definitions: leaves, redirects and
//     layout groups nesting child routes under a shared layout view
//   - A Router that resolves navigation requests, follows redirects up to a
//     fixed limit and commits the current navigation State
//   - A guard Chain run before every commit; each guard may proceed,
//     redirect or abort the navigation
//   - A History for back and forward traversal
//
// # Route Table
//
//	table, err := router.Build([]router.RouteDefinition{
//	    router.Group("/", layout,
//	        router.Redirect("", "/accuracy"),
//	        router.Leaf("/accuracy", accuracyView).Named("AccuracyAnalysis"),
//	        router.Leaf("/performance", perfView).Named("SystemPerformance"),
//	    ),
//	})
//
// Paths are matched exactly after canonicalization (see package routepath).
// Build rejects malformed tables with a *ConfigError; a redirect whose target
// is not a known path is rejected up front, while redirect cycles are only
// detected when navigated.
//
// # Navigation
//
//	r := router.New(table, router.WithGuards(chain), router.WithObserver(obs))
//	out, err := r.Navigate(ctx, router.Request{Path: "/", Origin: router.OriginUser})
//	// out.Status == router.StatusCommitted, out.State.Path == "/accuracy"
//
// Every call to Navigate emits exactly one Event to the configured Observer.
//
// # Guards
//
//	chain := router.NewChain(router.WithGuardTimeout(2 * time.Second))
//	chain.BeforeEach(func(ctx context.Context, to router.Request, from router.State) (router.Decision, error) {
//	    if to.Path == "/performance" && !allowed(ctx) {
//	        return router.RedirectTo("/accuracy"), nil
//	    }
//	    return router.Proceed(), nil
//	})
//
// Guards may block. A guard that errors, panics or exceeds the timeout aborts
// the navigation and the cause is returned to the caller of Navigate.
//
// # Concurrency
//
// A new navigation cancels the one still in flight. The cancelled navigation
// returns StatusAborted with ErrSuperseded and never commits, so the current
// state is written by at most one navigation at a time.
//
// Callers that dispatch navigations to goroutines should call Begin (or
// BeginGo for history) in the order requests arrive and Run the returned
// Navigation concurrently. The last navigation begun is the one that wins.
package router
