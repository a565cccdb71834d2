package policy

import (
	"testing"

	"github.com/bobmcallan/toolsmith/internal/models"
)

func TestClassify(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name string
		tool models.ToolDefinition
		want models.SafetyLevel
	}{
		{
			"destructive_keyword_in_name",
			models.ToolDefinition{Name: "delete_pets", Description: "x", Safety: models.SafetyDestructive},
			models.SafetyDestructive,
		},
		{
			"destructive_keyword_in_description",
			models.ToolDefinition{Name: "get_widget", Description: "Permanently purge cached widget state", Safety: models.SafetyRead},
			models.SafetyDestructive,
		},
		{
			"write_keyword",
			models.ToolDefinition{Name: "create_pets", Description: "x", Safety: models.SafetyWrite},
			models.SafetyWrite,
		},
		{
			"destructive_wins_over_write",
			models.ToolDefinition{Name: "update_thing", Description: "Remove and recreate the record", Safety: models.SafetyWrite},
			models.SafetyDestructive,
		},
		{
			"no_keyword_keeps_stage1",
			models.ToolDefinition{Name: "fetch_pets", Description: "Fetch pet list", Safety: models.SafetyRead},
			models.SafetyRead,
		},
		{
			"case_insensitive",
			models.ToolDefinition{Name: "pets", Description: "DESTROY all records", Safety: models.SafetyRead},
			models.SafetyDestructive,
		},
		{
			"full_override_downgrades_delete",
			// No destructive keyword anywhere, but a write keyword:
			// the override is total, so DESTRUCTIVE drops to WRITE
			models.ToolDefinition{Name: "clear_flag", Description: "Set the archived flag", Safety: models.SafetyDestructive},
			models.SafetyWrite,
		},
		{
			"keywords_match_as_substrings",
			models.ToolDefinition{Name: "list_updates", Description: "Recent changes feed", Safety: models.SafetyRead},
			models.SafetyWrite,
		},
		{
			"escalates_read_tool",
			models.ToolDefinition{Name: "get_sessions", Description: "Revoke expired sessions on read", Safety: models.SafetyRead},
			models.SafetyDestructive,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.tool); got != tc.want {
				t.Errorf("Classify(%s) = %s, want %s", tc.tool.Name, got, tc.want)
			}
		})
	}
}

func TestNewClassifier_CustomTables(t *testing.T) {
	c, err := NewClassifier(`(?i)nuke`, `(?i)scribble`)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	tool := models.ToolDefinition{Name: "nuke_it", Description: "x", Safety: models.SafetyRead}
	if got := c.Classify(tool); got != models.SafetyDestructive {
		t.Errorf("custom destructive table ignored, got %s", got)
	}

	// Default keywords must not fire with custom tables
	tool = models.ToolDefinition{Name: "delete_all", Description: "x", Safety: models.SafetyRead}
	if got := c.Classify(tool); got != models.SafetyRead {
		t.Errorf("default table leaked into custom classifier, got %s", got)
	}
}

func TestNewClassifier_InvalidPattern(t *testing.T) {
	if _, err := NewClassifier(`([unclosed`, `(?i)x`); err == nil {
		t.Error("expected error for invalid destructive pattern")
	}
	if _, err := NewClassifier(`(?i)x`, `([unclosed`); err == nil {
		t.Error("expected error for invalid write pattern")
	}
}
