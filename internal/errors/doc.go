// Package errors provides coded, actionable error messages for the
// evalboard command line.
//
// Each error has a unique code (e.g. "E104") that maps to a category, a
// short message, a longer explanation and a documentation URL. Errors can
// carry the configuration file they relate to, a hint and a wrapped cause.
//
// # Error Categories
//
//   - config: configuration loading and route table errors (E1xx)
//   - navigation: route resolution and guard errors (E2xx)
//   - cli: command usage and server errors (E3xx)
//
// # Usage
//
//	err := errors.New("E103").
//	    WithFile("evalboard.json").
//	    WithDetail(`route "/accuracy" uses view "Accuracy" which is not registered`).
//	    WithSuggestion("Use one of: AccuracyAnalysis, SystemPerformance, Layout")
//
//	fmt.Println(err.Format())
//	// ERROR E103: Unknown view in route configuration
//	//
//	//   evalboard.json
//	//
//	//   route "/accuracy" uses view "Accuracy" which is not registered
//	//
//	//   Hint: Use one of: AccuracyAnalysis, SystemPerformance, Layout
//	//
//	//   Learn more: https://evalboard.dev/docs/errors/E103
package errors
