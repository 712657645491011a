package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Data-layer errors (E001-E019) — always fatal
	// ============================================

	"E001": {
		Category:   CategoryData,
		Message:    "Invalid store key",
		Detail:     "A read used a nil key, or looked up an absent key without a default. The observed reader treats both as consumer misuse.",
		Suggestion: "Use GetOr when a key may legitimately be absent.",
	},
	"E002": {
		Category:   CategoryData,
		Message:    "Write through read-only reader",
		Detail:     "Query execution only gets an observed reader. All writes must go through a transaction handler's Tx.",
		Suggestion: "Move the write into a transaction handler registered on the runtime.",
	},
	"E003": {
		Category:   CategoryData,
		Message:    "Transaction already concluded",
		Detail:     "A transaction handle was used after Commit. Handles must not outlive their transaction.",
		Suggestion: "Return the final Tx from the handler instead of stashing it.",
	},
	"E004": {
		Category:   CategoryData,
		Message:    "Store mutated during transaction",
		Detail:     "The store snapshot changed while a transaction was in flight. Single-writer-at-a-time is a hard requirement; concurrent mutations are not merged.",
		Suggestion: "Route every write through RunTransaction on the same runtime.",
	},

	// ============================================
	// Event-routing errors (E020-E039) — recovered
	// ============================================

	"E020": {
		Category:   CategoryEvent,
		Message:    "Unknown transaction event",
		Detail:     "No handler is registered for this event identifier. The transaction is a logged no-op.",
		Suggestion: "Register the handler with RegisterEventHandler before dispatching.",
	},
	"E021": {
		Category:   CategoryEvent,
		Message:    "Unhandled component event",
		Detail:     "The event bubbled past the root component without finding a handler and was dropped.",
		Suggestion: "Add the event to a component's handler map or register a runtime-level handler.",
	},

	// ============================================
	// Scheduling errors (E040-E059) — recovered
	// ============================================

	"E040": {
		Category:   CategoryScheduler,
		Message:    "Stale suspend resume",
		Detail:     "A ready signal targeted a hook index that is not the component's current suspension point. The signal was ignored.",
		Suggestion: "Have async producers check component liveness and index before delivering results.",
	},
	"E041": {
		Category:   CategoryScheduler,
		Message:    "Component work failed",
		Detail:     "A hook or render function panicked. The component is marked failed and will not render; siblings and the scheduler are unaffected.",
		Suggestion: "Inspect the wrapped panic value; the component name is attached as context.",
	},
	// ============================================
	// Configuration errors (E060-E079)
	// ============================================

	"E060": {
		Category:   CategoryConfig,
		Message:    "Invalid strand.yaml",
		Detail:     "The configuration file is malformed or contains unknown fields.",
		Suggestion: "Validate the file against the documented schema.",
	},
	"E061": {
		Category:   CategoryConfig,
		Message:    "Too many hooks",
		Detail:     "A component config declares more hook slots than the bitmask width supports (64).",
		Suggestion: "Split the component or collapse related hooks.",
	},
	"E062": {
		Category:   CategoryConfig,
		Message:    "Invalid inspector address",
		Detail:     "The inspector bind address could not be parsed.",
		Suggestion: "Use host:port form, e.g. 127.0.0.1:6391.",
	},

	// ============================================
	// CLI errors (E080-E099)
	// ============================================

	"E080": {
		Category:   CategoryCLI,
		Message:    "Config file not found",
		Detail:     "No strand.yaml was found at the given path.",
		Suggestion: "Pass --config or run from the project root.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
