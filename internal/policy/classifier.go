package policy

import (
	"fmt"
	"regexp"

	"github.com/bobmcallan/toolsmith/internal/models"
)

// Default keyword tables for stage-2 classification. Patterns are
// configuration injected at construction, not hidden global state, so
// separate runs with different tables never interfere.
const (
	DefaultDestructivePattern = `(?i)(delete|remove|destroy|purge|drop|revoke|terminate|cancel)`
	DefaultWritePattern       = `(?i)(create|update|set|add|assign|upload|import|modify|enable|disable|patch|put)`
)

// Classifier refines a tool's safety level from its name and description
// text. This is stage 2 of the two-stage classification; stage 1 happens
// at mining time from the HTTP method alone.
type Classifier struct {
	destructive *regexp.Regexp
	write       *regexp.Regexp
}

// NewClassifier compiles custom keyword tables.
func NewClassifier(destructivePattern, writePattern string) (*Classifier, error) {
	destructive, err := regexp.Compile(destructivePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid destructive pattern: %w", err)
	}
	write, err := regexp.Compile(writePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid write pattern: %w", err)
	}
	return &Classifier{destructive: destructive, write: write}, nil
}

// NewDefaultClassifier builds a classifier over the default keyword tables.
func NewDefaultClassifier() *Classifier {
	return &Classifier{
		destructive: regexp.MustCompile(DefaultDestructivePattern),
		write:       regexp.MustCompile(DefaultWritePattern),
	}
}

// Classify returns the refined safety level for a tool. A destructive
// keyword match wins outright; otherwise a write keyword sets WRITE; no
// match keeps the level the tool already carries. The override is total,
// not a monotone escalation: a DELETE-derived tool whose text has no
// destructive keyword but a write keyword is downgraded to WRITE.
func (c *Classifier) Classify(tool models.ToolDefinition) models.SafetyLevel {
	text := tool.Name + " " + tool.Description
	if c.destructive.MatchString(text) {
		return models.SafetyDestructive
	}
	if c.write.MatchString(text) {
		return models.SafetyWrite
	}
	return tool.Safety
}
