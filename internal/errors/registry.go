package errors

import (
	"net/http"
	"sort"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	Status     int
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Storage (J001-J099)

	"J001": {
		Category:   CategoryStorage,
		Message:    "Storage backend unavailable",
		Detail:     "The session storage backend could not be opened or reached. Sessions fall back to defaults until it recovers.",
		Suggestion: "Check storage.driver and storage.dsn (or the S3 bucket settings).",
		Status:     http.StatusServiceUnavailable,
	},
	"J002": {
		Category: CategoryStorage,
		Message:  "Stored state rejected",
		Detail:   "A persisted store blob failed schema validation and was replaced by the default state.",
	},

	// Hash (J101-J199)

	"J101": {
		Category:   CategoryHash,
		Message:    "Generator hash service failed",
		Detail:     "The import map generator hash could not be computed. The previously cached hash is kept.",
		Suggestion: "Set generator.hash_endpoint to an empty string to compute hashes locally.",
		Status:     http.StatusBadGateway,
	},
	"J102": {
		Category: CategoryHash,
		Message:  "Invalid generator hash",
		Detail:   "The hash could not be decoded into a dependency selection.",
		Status:   http.StatusBadRequest,
	},

	// Mount (J201-J299)

	"J201": {
		Category: CategoryMount,
		Message:  "Unknown island",
		Detail:   "The requested island tag is not registered.",
		Status:   http.StatusNotFound,
	},
	"J202": {
		Category: CategoryMount,
		Message:  "Invalid island action",
		Detail:   "The island does not support this action or its props are invalid.",
		Status:   http.StatusBadRequest,
	},
	"J203": {
		Category: CategoryMount,
		Message:  "Invalid live message",
		Detail:   "A live channel frame could not be decoded.",
		Status:   http.StatusBadRequest,
	},

	// Registry (J301-J399)

	"J301": {
		Category: CategoryRegistry,
		Message:  "Package not found",
		Detail:   "The NPM registry has no package or version with this name.",
		Status:   http.StatusNotFound,
	},
	"J302": {
		Category:   CategoryRegistry,
		Message:    "NPM registry unavailable",
		Detail:     "The NPM registry did not answer successfully after retries.",
		Suggestion: "Retry in a moment; the registry circuit breaker reopens automatically.",
		Status:     http.StatusBadGateway,
	},
	"J303": {
		Category: CategoryRegistry,
		Message:  "Invalid package name",
		Status:   http.StatusBadRequest,
	},

	// Render (J401-J499)

	"J401": {
		Category: CategoryRender,
		Message:  "Page render failed",
		Status:   http.StatusInternalServerError,
	},

	// Config (J501-J599)

	"J501": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Run `jspm-packages serve --help` for the available settings.",
	},
	"J502": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
	},

	// CLI (J601-J699)

	"J601": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
}

// Lookup returns the template for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ByCategory returns the registered codes of a category in order.
func ByCategory(cat Category) []string {
	var codes []string
	for _, code := range Codes() {
		if registry[code].Category == cat {
			codes = append(codes, code)
		}
	}
	return codes
}
