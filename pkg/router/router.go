package router

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/evalboard/pkg/routepath"
)

// ErrNoHistory is returned by Back, Forward and Go when there is no entry
// to move to. No navigation is attempted.
var ErrNoHistory = errors.New("router: no history entry")

// Observer receives one Event per navigation attempt.
type Observer interface {
	ObserveNavigation(ctx context.Context, ev Event)
}

// ObserverFunc is a function adapter for Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// ObserveNavigation implements Observer.
func (f ObserverFunc) ObserveNavigation(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Router resolves navigation requests against a Table, runs the guard
// chain and owns the current navigation state.
//
// Navigations are serialized by cancellation: beginning a navigation cancels
// the one still in flight (its guards see ctx cancelled with ErrSuperseded)
// and only the most recently begun navigation may commit.
type Router struct {
	table         *Table
	guards        *Chain
	observer      Observer
	logger        *slog.Logger
	history       *History
	redirectLimit int

	mu      sync.Mutex
	current State
	gen     uint64
	cancel  context.CancelCauseFunc

	// pending is the history index of the traversal in flight, or -1.
	pending int
}

// Option configures a Router.
type Option func(*Router)

// WithGuards sets the guard chain. Routers built from the same chain share
// its guards.
func WithGuards(c *Chain) Option {
	return func(r *Router) {
		r.guards = c
	}
}

// WithRedirectLimit caps redirects per navigation, counting table and guard
// redirects together. Values below zero are treated as zero.
func WithRedirectLimit(n int) Option {
	return func(r *Router) {
		r.redirectLimit = max(n, 0)
	}
}

// WithObserver sets the navigation observer.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithHistory sets the history the router records into.
func WithHistory(h *History) Option {
	return func(r *Router) {
		r.history = h
	}
}

// New creates a router over table.
func New(table *Table, opts ...Option) *Router {
	r := &Router{
		table:         table,
		redirectLimit: DefaultRedirectLimit,
		pending:       -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.guards == nil {
		r.guards = NewChain()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.history == nil {
		r.history = NewHistory()
	}
	return r
}

// Table returns the route table.
func (r *Router) Table() *Table {
	return r.table
}

// Guards returns the guard chain.
func (r *Router) Guards() *Chain {
	return r.guards
}

// History returns the navigation history.
func (r *Router) History() *History {
	return r.history
}

// BeforeEach registers a guard on the router's chain.
func (r *Router) BeforeEach(fn func(ctx context.Context, to Request, from State) (Decision, error)) {
	r.guards.BeforeEach(fn)
}

// Current returns the committed navigation state.
func (r *Router) Current() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigation is a navigation that has taken its place in the router's
// order but has not run yet. Begin and BeginGo create one; Run must be
// called exactly once to finish it.
type Navigation struct {
	r       *Router
	ctx     context.Context
	navCtx  context.Context
	cancel  context.CancelCauseFunc
	gen     uint64
	req     Request
	index   int
	started time.Time
}

// Request returns the request the navigation is for.
func (n *Navigation) Request() Request {
	return n.req
}

// Navigate resolves req, follows redirects, runs the guards and commits.
//
// The returned error is nil for committed navigations and for plain guard
// aborts. Unknown paths and redirect loops fail with a *NavigationError and
// StatusFailed; guard errors, guard timeouts and superseded navigations
// abort with a *NavigationError and StatusAborted. The current state is only
// changed by a commit. Exactly one Event is emitted per call.
func (r *Router) Navigate(ctx context.Context, req Request) (Outcome, error) {
	return r.Begin(ctx, req).Run()
}

// Begin supersedes the navigation in flight and reserves the next place in
// the router's order for req. The newest Begin is the only navigation that
// can commit, whatever order the Run calls happen in.
func (r *Router) Begin(ctx context.Context, req Request) *Navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start(ctx, req, -1)
}

// BeginGo is Begin for a history traversal of delta entries. The entry is
// picked relative to a traversal still in flight, so two quick Back calls
// go back two entries. When there is no entry BeginGo returns ErrNoHistory
// and leaves the navigation in flight alone.
func (r *Router) BeginGo(ctx context.Context, delta int) (*Navigation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if delta == 0 {
		return r.start(ctx, Request{Path: r.current.Path, Origin: OriginHistory, Replace: true}, -1), nil
	}

	base := r.pending
	if base < 0 {
		base = r.history.Index()
	}
	path, ok := r.history.At(base + delta)
	if !ok {
		return nil, ErrNoHistory
	}
	return r.start(ctx, Request{Path: path, Origin: OriginHistory}, base+delta), nil
}

// start is called with r.mu held.
func (r *Router) start(ctx context.Context, req Request, index int) *Navigation {
	navCtx, cancel := context.WithCancelCause(ctx)
	if r.cancel != nil {
		r.cancel(ErrSuperseded)
	}
	r.gen++
	r.cancel = cancel
	r.pending = index

	return &Navigation{
		r:       r,
		ctx:     ctx,
		navCtx:  navCtx,
		cancel:  cancel,
		gen:     r.gen,
		req:     req,
		index:   index,
		started: time.Now(),
	}
}

// Run performs the navigation. It commits only if no newer navigation
// has begun, and emits exactly one Event.
func (n *Navigation) Run() (Outcome, error) {
	r := n.r
	out, err := r.navigate(n)
	r.finish(n.gen)
	n.cancel(nil)

	r.emit(n.ctx, n.req, out, err, n.started)
	return out, err
}

func (r *Router) finish(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen == gen {
		r.cancel = nil
		r.pending = -1
	}
}

func (r *Router) navigate(n *Navigation) (Outcome, error) {
	ctx, req := n.navCtx, n.req
	from := r.Current()
	out := Outcome{Requested: req.Path, Target: req.Path, State: from}

	fail := func(kind error, cause error) (Outcome, error) {
		out.Status = StatusFailed
		return out, &NavigationError{Kind: kind, Path: out.Target, Hops: out.Hops, Guard: -1, Err: cause}
	}

	path, err := routepath.Clean(req.Path)
	if err != nil {
		return fail(ErrRouteNotFound, err)
	}

	for {
		out.Target = path

		route, ok := r.table.Resolve(path)
		if !ok {
			return fail(ErrRouteNotFound, nil)
		}

		if route.Kind == KindRedirect {
			if out.Hops++; out.Hops > r.redirectLimit {
				return fail(ErrRedirectLoop, nil)
			}
			path = route.Target
			continue
		}

		to := Request{Path: path, Origin: req.Origin, Replace: req.Replace}
		d, gerr := r.guards.Run(ctx, to, from)
		if gerr != nil {
			var navErr *NavigationError
			if errors.As(gerr, &navErr) {
				navErr.Hops = out.Hops
			}
			out.Status = StatusAborted
			return out, gerr
		}

		switch d.Verdict {
		case VerdictAbort:
			out.Status = StatusAborted
			return out, nil
		case VerdictRedirect:
			next, err := routepath.Clean(d.Target)
			if err != nil {
				out.Target = d.Target
				return fail(ErrRouteNotFound, err)
			}
			if out.Hops++; out.Hops > r.redirectLimit {
				return fail(ErrRedirectLoop, nil)
			}
			path = next
			continue
		}

		next := State{
			Path:    route.Path,
			Name:    route.Name,
			View:    route.View,
			Layouts: route.Layouts,
		}
		if !r.commit(n, next) {
			out.Status = StatusAborted
			navErr := &NavigationError{Kind: ErrSuperseded, Path: path, Hops: out.Hops, Guard: -1}
			if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, ErrSuperseded) {
				navErr.Err = cause
			}
			return out, navErr
		}
		out.Status = StatusCommitted
		out.State = next
		return out, nil
	}
}

// commit stores next if n is still the newest navigation and its context
// is live. A traversal lands on the history index chosen by BeginGo.
func (r *Router) commit(n *Navigation, next State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.gen != r.gen || n.navCtx.Err() != nil {
		return false
	}
	r.current = next

	switch {
	case n.index >= 0:
		r.history.MoveTo(n.index, next.Path)
	case n.req.Replace, n.req.Origin == OriginHistory:
		r.history.Replace(next.Path)
	default:
		r.history.Push(next.Path)
	}
	return true
}

func (r *Router) emit(ctx context.Context, req Request, out Outcome, err error, started time.Time) {
	switch {
	case errors.Is(err, ErrRedirectLoop):
		r.logger.Error("redirect loop", "requested", req.Path, "path", out.Target, "hops", out.Hops)
	case errors.Is(err, ErrSuperseded):
		r.logger.Debug("navigation superseded", "requested", req.Path, "path", out.Target)
	}

	if r.observer == nil {
		return
	}
	r.observer.ObserveNavigation(ctx, Event{
		Requested: req.Path,
		Path:      out.Target,
		Origin:    req.Origin,
		Status:    out.Status,
		Hops:      out.Hops,
		Err:       err,
		Started:   started,
		Duration:  time.Since(started),
	})
}

// Push navigates programmatically to path, adding a history entry.
func (r *Router) Push(ctx context.Context, path string) (Outcome, error) {
	return r.Navigate(ctx, Request{Path: path, Origin: OriginProgrammatic})
}

// Replace navigates programmatically to path, replacing the history entry.
func (r *Router) Replace(ctx context.Context, path string) (Outcome, error) {
	return r.Navigate(ctx, Request{Path: path, Origin: OriginProgrammatic, Replace: true})
}

// PushNamed navigates programmatically to the route with the given name.
// An unknown name fails with ErrRouteNotFound and is reported to the
// observer like any other failed navigation.
func (r *Router) PushNamed(ctx context.Context, name string) (Outcome, error) {
	route, ok := r.table.Lookup(name)
	if !ok {
		started := time.Now()
		req := Request{Path: name, Origin: OriginProgrammatic}
		out := Outcome{Status: StatusFailed, Requested: name, Target: name, State: r.Current()}
		err := &NavigationError{Kind: ErrRouteNotFound, Path: name, Guard: -1}
		r.emit(ctx, req, out, err, started)
		return out, err
	}
	return r.Push(ctx, route.Path)
}

// Back moves one entry back in history.
func (r *Router) Back(ctx context.Context) (Outcome, error) {
	return r.Go(ctx, -1)
}

// Forward moves one entry forward in history.
func (r *Router) Forward(ctx context.Context) (Outcome, error) {
	return r.Go(ctx, 1)
}

// Go traverses history by delta entries. The cursor only moves when the
// navigation commits. ErrNoHistory is returned when the entry is missing.
func (r *Router) Go(ctx context.Context, delta int) (Outcome, error) {
	nav, err := r.BeginGo(ctx, delta)
	if err != nil {
		return Outcome{Status: StatusAborted, State: r.Current()}, err
	}
	return nav.Run()
}
