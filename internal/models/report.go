package models

import "time"

// SafetyCounts aggregates passed tools by safety level.
type SafetyCounts struct {
	Read        int `json:"read"`
	Write       int `json:"write"`
	Destructive int `json:"destructive"`
}

// StageTiming records the wall-clock duration of one pipeline stage.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// EnhancementStatus records whether the optional enhancement step rewrote
// the tool list, and why not when it did not.
type EnhancementStatus struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// MiningReport is the audit output of one pipeline run, consumed by the
// report writers and by humans reviewing what was exposed and why.
type MiningReport struct {
	Source      string    `json:"source,omitempty"`
	Title       string    `json:"title"`
	Version     string    `json:"version"`
	BaseURL     string    `json:"base_url,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	EndpointCount int `json:"endpoint_count"`
	GroupCount    int `json:"group_count"`
	MinedCount    int `json:"mined_count"`
	PassedCount   int `json:"passed_count"`

	Counts      SafetyCounts      `json:"counts"`
	Tools       []ToolDefinition  `json:"tools"`
	Blocked     []BlockedTool     `json:"blocked,omitempty"`
	Dropped     []DroppedTool     `json:"dropped,omitempty"`
	Enhancement EnhancementStatus `json:"enhancement"`
	Stages      []StageTiming     `json:"stages,omitempty"`
}
