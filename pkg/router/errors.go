package router

import (
	"errors"
	"fmt"
)

// Navigation and configuration errors. Use errors.Is to classify.
var (
	// ErrInvalidConfig marks a malformed route table. It is fatal at startup.
	ErrInvalidConfig = errors.New("invalid route configuration")

	// ErrRouteNotFound means no route matches the target path.
	ErrRouteNotFound = errors.New("route not found")

	// ErrRedirectLoop means the redirect limit was exceeded.
	ErrRedirectLoop = errors.New("redirect limit exceeded")

	// ErrGuardTimeout means a guard did not decide within its bound.
	ErrGuardTimeout = errors.New("guard timed out")

	// ErrGuardFailed means a guard returned an error or panicked.
	ErrGuardFailed = errors.New("guard failed")

	// ErrSuperseded means a newer navigation cancelled this one.
	ErrSuperseded = errors.New("navigation superseded")
)

// ConfigError reports a route definition that cannot be built.
type ConfigError struct {
	// Path is the offending route path as written in the definition.
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "router: " + e.Reason
	}
	return fmt.Sprintf("router: route %q: %s", e.Path, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidConfig) hold.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configErrorf(path, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// NavigationError is returned by Navigate for every recoverable failure.
// It matches its Kind and its underlying cause with errors.Is.
type NavigationError struct {
	// Kind is one of ErrRouteNotFound, ErrRedirectLoop, ErrGuardTimeout,
	// ErrGuardFailed or ErrSuperseded.
	Kind error

	// Path is the target path at the time of failure.
	Path string

	Hops int

	// Guard is the registration index of the guard involved, or -1.
	Guard int

	// Err is the underlying cause, if any.
	Err error
}

func (e *NavigationError) Error() string {
	msg := fmt.Sprintf("router: navigate %q: %v", e.Path, e.Kind)
	if e.Guard >= 0 {
		msg += fmt.Sprintf(" (guard #%d)", e.Guard)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the kind and the cause.
func (e *NavigationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
