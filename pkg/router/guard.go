package router

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Verdict is the kind of decision a guard returns.
type Verdict int

const (
	// VerdictProceed lets the navigation continue.
	VerdictProceed Verdict = iota

	// VerdictRedirect restarts the navigation at another path.
	VerdictRedirect

	// VerdictAbort cancels the navigation and keeps the current state.
	VerdictAbort
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictProceed:
		return "proceed"
	case VerdictRedirect:
		return "redirect"
	case VerdictAbort:
		return "abort"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Decision is the result of a guard check.
type Decision struct {
	Verdict Verdict

	// Target is set for VerdictRedirect.
	Target string
}

// Proceed approves the navigation.
func Proceed() Decision { return Decision{Verdict: VerdictProceed} }

// RedirectTo restarts the navigation at path.
func RedirectTo(path string) Decision { return Decision{Verdict: VerdictRedirect, Target: path} }

// Abort cancels the navigation.
func Abort() Decision { return Decision{Verdict: VerdictAbort} }

// Guard intercepts a navigation before it is committed.
//
// Check may block; it should honour ctx, which is cancelled when the guard
// exceeds the chain timeout or a newer navigation supersedes this one.
// Returning an error aborts the navigation with ErrGuardFailed.
type Guard interface {
	Check(ctx context.Context, to Request, from State) (Decision, error)
}

// GuardFunc is a function adapter for Guard.
type GuardFunc func(ctx context.Context, to Request, from State) (Decision, error)

// Check implements Guard.
func (f GuardFunc) Check(ctx context.Context, to Request, from State) (Decision, error) {
	return f(ctx, to, from)
}

// Chain is an ordered list of guards. Guards run in registration order and
// cannot be removed or reordered.
type Chain struct {
	mu      sync.RWMutex
	guards  []Guard
	timeout time.Duration
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithGuardTimeout bounds how long a single guard may take to decide.
// Zero disables the bound.
func WithGuardTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		c.timeout = d
	}
}

// NewChain creates an empty guard chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register appends a guard to the chain.
func (c *Chain) Register(g Guard) {
	c.mu.Lock()
	c.guards = append(c.guards, g)
	c.mu.Unlock()
}

// BeforeEach registers fn as a guard.
func (c *Chain) BeforeEach(fn func(ctx context.Context, to Request, from State) (Decision, error)) {
	c.Register(GuardFunc(fn))
}

// Len returns the number of registered guards.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.guards)
}

// Timeout returns the per-guard bound.
func (c *Chain) Timeout() time.Duration {
	return c.timeout
}

// Run invokes the guards in order and returns the first decision that is
// not Proceed. A failing or timed out guard yields Abort together with a
// *NavigationError; the guards after it are not invoked.
func (c *Chain) Run(ctx context.Context, to Request, from State) (Decision, error) {
	if c == nil {
		return Proceed(), nil
	}

	c.mu.RLock()
	guards := slices.Clone(c.guards)
	c.mu.RUnlock()

	for i, g := range guards {
		d, err := c.invoke(ctx, g, to, from)
		if err != nil {
			return Abort(), guardError(err, to.Path, i)
		}
		if d.Verdict != VerdictProceed {
			return d, nil
		}
	}
	return Proceed(), nil
}

type guardResult struct {
	decision Decision
	err      error
}

var errGuardDeadline = errors.New("guard deadline")

// invoke runs g in its own goroutine so that a guard ignoring ctx cannot
// hold the navigation past the chain timeout.
func (c *Chain) invoke(ctx context.Context, g Guard, to Request, from State) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, context.Cause(ctx)
	}

	gctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeoutCause(ctx, c.timeout, errGuardDeadline)
		defer cancel()
	}

	done := make(chan guardResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- guardResult{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		d, err := g.Check(gctx, to, from)
		done <- guardResult{decision: d, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			// A guard that honours ctx reports the deadline as its own error.
			if gctx.Err() != nil {
				return Decision{}, context.Cause(gctx)
			}
			return Decision{}, res.err
		}
		if res.decision.Verdict == VerdictRedirect && res.decision.Target == "" {
			return Decision{}, errors.New("redirect decision without target")
		}
		return res.decision, nil
	case <-gctx.Done():
		return Decision{}, context.Cause(gctx)
	}
}

func guardError(err error, path string, index int) *NavigationError {
	switch {
	case errors.Is(err, errGuardDeadline):
		return &NavigationError{Kind: ErrGuardTimeout, Path: path, Guard: index}
	case errors.Is(err, ErrSuperseded):
		return &NavigationError{Kind: ErrSuperseded, Path: path, Guard: index}
	default:
		return &NavigationError{Kind: ErrGuardFailed, Path: path, Guard: index, Err: err}
	}
}

// Only runs g when cond matches the request; other requests proceed.
func Only(cond func(to Request) bool, g Guard) Guard {
	return GuardFunc(func(ctx context.Context, to Request, from State) (Decision, error) {
		if !cond(to) {
			return Proceed(), nil
		}
		return g.Check(ctx, to, from)
	})
}

// Skip bypasses g when cond matches the request.
func Skip(cond func(to Request) bool, g Guard) Guard {
	return GuardFunc(func(ctx context.Context, to Request, from State) (Decision, error) {
		if cond(to) {
			return Proceed(), nil
		}
		return g.Check(ctx, to, from)
	})
}

// Guards combines several guards into one that runs them in order.
func Guards(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context, to Request, from State) (Decision, error) {
		for _, g := range guards {
			d, err := g.Check(ctx, to, from)
			if err != nil || d.Verdict != VerdictProceed {
				return d, err
			}
		}
		return Proceed(), nil
	})
}
