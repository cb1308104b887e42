package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reconcile Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryReconcile,
		Message:  "Duplicate sibling keys",
		Detail:   "Two children of the same parent carry the same key. Keyed matching is undefined for duplicates, so the whole child list was replaced instead of reordered.",
		DocURL:   "https://weftdom.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryReconcile,
		Message:  "Cycle detected in submitted tree",
		Detail:   "A node is reachable from itself through the child lists. Trees must be acyclic; build each submission from fresh nodes instead of re-linking existing ones.",
		DocURL:   "https://weftdom.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryReconcile,
		Message:  "Tree exceeds maximum depth",
		Detail:   "The submitted tree nests deeper than the configured limit. Deep recursion during diffing is bounded to protect the server.",
		DocURL:   "https://weftdom.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryReconcile,
		Message:  "Text node carries children",
		Detail:   "Text nodes are leaves. Wrap mixed content in an element node.",
		DocURL:   "https://weftdom.dev/docs/errors/E004",
	},

	// ============================================
	// Apply Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryApply,
		Message:  "Patch path does not resolve",
		Detail:   "A patch addressed a node that does not exist in the live tree. The patch sequence was aborted and the previous tree kept.",
		DocURL:   "https://weftdom.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryApply,
		Message:  "Child index out of bounds",
		Detail:   "A structural patch referenced a child position outside the current child list.",
		DocURL:   "https://weftdom.dev/docs/errors/E021",
	},

	// ============================================
	// Protocol Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "The frame header or payload could not be decoded.",
		DocURL:   "https://weftdom.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryProtocol,
		Message:  "Payload exceeds size limits",
		Detail:   "A length prefix claimed more data than the decoder allows. Limits guard against hostile payloads.",
		DocURL:   "https://weftdom.dev/docs/errors/E041",
	},

	// ============================================
	// Server Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryServer,
		Message:  "Submission rejected",
		Detail:   "The server refused the submitted tree before batching. See the wrapped error for the validation failure.",
		DocURL:   "https://weftdom.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryServer,
		Message:  "Resync window exceeded",
		Detail:   "The requested sequence range is older than the patch history retains. The server sent a full baseline instead.",
		DocURL:   "https://weftdom.dev/docs/errors/E061",
	},

	// ============================================
	// Config Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryConfig,
		Message:  "Config file not readable",
		Detail:   "The config file could not be opened or parsed as YAML.",
		DocURL:   "https://weftdom.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config field holds a value outside its allowed range.",
		DocURL:   "https://weftdom.dev/docs/errors/E081",
	},

	// ============================================
	// CLI Errors (E100+)
	// ============================================

	"E100": {
		Category: CategoryCLI,
		Message:  "Invalid command arguments",
		Detail:   "The command was invoked with arguments it does not accept.",
		DocURL:   "https://weftdom.dev/docs/errors/E100",
	},
}

// Lookup returns the template registered under code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
