package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Builder Errors (F100-F199)
	// ============================================

	"F101": {
		Category:   CategoryBuilder,
		Message:    "Attribute added outside an open element or component",
		Suggestion: "Add attributes immediately after OpenElement or OpenComponent, before any child content",
	},
	"F102": {
		Category:   CategoryBuilder,
		Message:    "Close without a matching open frame",
		Suggestion: "Pair every CloseElement with OpenElement and every CloseComponent with OpenComponent",
	},
	"F103": {
		Category:   CategoryBuilder,
		Message:    "Subtree left open at build time",
		Suggestion: "Close every element and component before calling Build",
	},
	"F104": {
		Category: CategoryBuilder,
		Message:  "Component binding target is not a component frame",
	},
	"F105": {
		Category:   CategoryBuilder,
		Message:    "Component frame already bound",
		Suggestion: "Bind each component placeholder exactly once",
	},
	"F106": {
		Category: CategoryBuilder,
		Message:  "Frame count exceeds 32-bit range",
	},
	"F107": {
		Category: CategoryBuilder,
		Message:  "Attribute copy source is not an attribute frame",
	},
	"F108": {
		Category:   CategoryBuilder,
		Message:    "Invalid component binding",
		Suggestion: "Component ids must be non-zero; zero means unbound",
	},
	"F109": {
		Category: CategoryBuilder,
		Message:  "Component placeholder opened without a type",
	},

	// ============================================
	// Traversal Errors (F150-F199)
	// ============================================

	"F150": {
		Category: CategoryTraversal,
		Message:  "Subtree is still open",
	},
	"F151": {
		Category: CategoryTraversal,
		Message:  "Frame index out of range",
	},
	"F152": {
		Category: CategoryTraversal,
		Message:  "Malformed sequence",
	},

	// ============================================
	// Layout Errors (F200-F299)
	// ============================================

	"F201": {
		Category: CategoryLayout,
		Message:  "Frame image truncated",
	},
	"F202": {
		Category:   CategoryLayout,
		Message:    "Unsupported frame image",
		Suggestion: "Repack the sequence with the current layout version",
	},
	"F203": {
		Category:   CategoryLayout,
		Message:    "Frame image exceeds configured limits",
		Suggestion: "Raise layout.maxFrames or layout.maxStringBytes in the configuration",
	},
	"F204": {
		Category: CategoryLayout,
		Message:  "Record references a missing table entry",
	},
	"F205": {
		Category: CategoryLayout,
		Message:  "Attribute value cannot be packed",
	},
	"F206": {
		Category: CategoryLayout,
		Message:  "Record kind mismatch",
	},
	"F207": {
		Category: CategoryLayout,
		Message:  "Handle not available in this process",
	},

	// ============================================
	// Config Errors (F300-F399)
	// ============================================

	"F301": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create rendertree.json, rendertree.yaml or rendertree.toml",
	},
	"F302": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"F303": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// CLI Errors (F400-F499)
	// ============================================

	"F401": {
		Category: CategoryCLI,
		Message:  "Cannot read tree document",
	},
	"F402": {
		Category:   CategoryCLI,
		Message:    "Unknown component in tree document",
		Suggestion: "Register the component name before loading the document",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
