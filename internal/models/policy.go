package models

// DefaultRedactPatterns cover the common credential and PII field names.
// Used when a policy supplies no patterns of its own.
var DefaultRedactPatterns = []string{
	`(?i)password`,
	`(?i)secret`,
	`(?i)token`,
	`(?i)ssn`,
	`(?i)credit.?card`,
}

// SafetyPolicy governs which mined tools are exposed and how they are
// annotated. Immutable configuration supplied once per invocation.
type SafetyPolicy struct {
	// Explicit allowlist of tool names. Empty = allow all.
	Allowlist []string `json:"allowlist,omitempty" toml:"allowlist"`
	// Explicit denylist of tool names. Wins over the allowlist.
	Denylist []string `json:"denylist,omitempty" toml:"denylist"`
	// Block every tool classified destructive.
	BlockDestructive bool `json:"block_destructive,omitempty" toml:"block_destructive"`
	// Require an explicit confirm argument before dispatching write or
	// destructive tools.
	RequireWriteConfirmation bool `json:"require_write_confirmation,omitempty" toml:"require_write_confirmation"`
	// Regex patterns for sensitive parameter names. Empty = defaults.
	RedactPatterns []string `json:"redact_patterns,omitempty" toml:"redact_patterns"`
	// Maximum tools to expose after filtering. 0 = no limit.
	MaxTools int `json:"max_tools,omitempty" toml:"max_tools"`
}

// DefaultSafetyPolicy mirrors the zero configuration: everything allowed,
// write confirmation on, default redaction patterns.
func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		RequireWriteConfirmation: true,
		RedactPatterns:           append([]string(nil), DefaultRedactPatterns...),
	}
}
