package models

// SafetyLevel classifies a tool's potential side effects.
type SafetyLevel string

const (
	SafetyRead        SafetyLevel = "read"
	SafetyWrite       SafetyLevel = "write"
	SafetyDestructive SafetyLevel = "destructive"
)

// ParseSafetyLevel maps a string onto a SafetyLevel. Unknown values report
// ok=false and default to SafetyRead so a level is never unset.
func ParseSafetyLevel(s string) (SafetyLevel, bool) {
	switch SafetyLevel(s) {
	case SafetyRead, SafetyWrite, SafetyDestructive:
		return SafetyLevel(s), true
	}
	return SafetyRead, false
}

// ToolParam is one parameter of a mined tool, projected into JSON-schema
// terms. Unique by name within a tool; first occurrence wins.
type ToolParam struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Required    bool     `json:"required,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// ToolDefinition is one agent-callable capability mined from one or more
// endpoints. Endpoints holds more than one entry only for merged search
// tools.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Safety      SafetyLevel `json:"safety"`
	Params      []ToolParam `json:"params"`
	Endpoints   []Endpoint  `json:"endpoints"`
	Tags        []string    `json:"tags,omitempty"`
}

// Clone returns a deep copy suitable for stage-local mutation. Endpoint
// values are copied by value; their inner slices are shared because
// endpoints are read-only once mining has run.
func (t ToolDefinition) Clone() ToolDefinition {
	out := t
	if t.Params != nil {
		out.Params = make([]ToolParam, len(t.Params))
		for i, p := range t.Params {
			cp := p
			if p.Enum != nil {
				cp.Enum = append([]string(nil), p.Enum...)
			}
			out.Params[i] = cp
		}
	}
	if t.Endpoints != nil {
		out.Endpoints = append([]Endpoint(nil), t.Endpoints...)
	}
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	return out
}

// BlockedTool records one tool excluded by the safety policy.
type BlockedTool struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// DroppedTool records one tool lost to a name collision during mining.
type DroppedTool struct {
	Name   string `json:"name"`
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason"`
}
