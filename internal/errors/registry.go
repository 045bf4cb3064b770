package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://evalboard.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration errors (E100-E199)
	"E100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   docBase + "E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Unknown view in route configuration",
		Detail:   "A route refers to a view that the application did not register.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid route table",
		Detail:   "The route definitions could not be built into a route table.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Remote configuration unavailable",
		Detail:   "The configuration object could not be fetched.",
		DocURL:   docBase + "E105",
	},

	// Navigation errors (E200-E299)
	"E200": {
		Category: CategoryNavigation,
		Message:  "Route not found",
		DocURL:   docBase + "E200",
	},
	"E201": {
		Category: CategoryNavigation,
		Message:  "Redirect loop",
		Detail:   "The navigation followed more redirects than the configured limit.",
		DocURL:   docBase + "E201",
	},
	"E202": {
		Category: CategoryNavigation,
		Message:  "Navigation guard failed",
		DocURL:   docBase + "E202",
	},
	"E203": {
		Category: CategoryNavigation,
		Message:  "Navigation guard timed out",
		DocURL:   docBase + "E203",
	},

	// CLI errors (E300-E399)
	"E300": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		DocURL:   docBase + "E300",
	},
	"E301": {
		Category: CategoryCLI,
		Message:  "Server error",
		DocURL:   docBase + "E301",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
