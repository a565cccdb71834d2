package policy

import (
	"strings"
	"testing"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

func testTools() []models.ToolDefinition {
	return []models.ToolDefinition{
		{Name: "fetch_pets", Description: "Fetch pets", Safety: models.SafetyRead},
		{Name: "create_pets", Description: "Make a pet", Safety: models.SafetyWrite},
		{Name: "delete_pets", Description: "Remove a pet", Safety: models.SafetyDestructive},
	}
}

func newTestEnforcer(policy models.SafetyPolicy) *Enforcer {
	return NewEnforcer(policy, common.NewSilentLogger())
}

func passedNames(res *Result) []string {
	names := make([]string, len(res.Tools))
	for i, t := range res.Tools {
		names[i] = t.Name
	}
	return names
}

func TestApply_EmptyPolicyPassesAll(t *testing.T) {
	res := newTestEnforcer(models.SafetyPolicy{}).Apply(testTools())

	if len(res.Tools) != 3 {
		t.Fatalf("expected all 3 tools to pass, got %v", passedNames(res))
	}
	if len(res.Blocked) != 0 {
		t.Errorf("expected no blocks, got %v", res.Blocked)
	}
}

func TestApply_AllowlistBlocksAbsent(t *testing.T) {
	policy := models.SafetyPolicy{Allowlist: []string{"fetch_pets"}}
	res := newTestEnforcer(policy).Apply(testTools())

	if len(res.Tools) != 1 || res.Tools[0].Name != "fetch_pets" {
		t.Fatalf("expected only fetch_pets, got %v", passedNames(res))
	}
	if len(res.Blocked) != 2 {
		t.Fatalf("expected 2 blocked, got %d", len(res.Blocked))
	}
	for _, b := range res.Blocked {
		if b.Reason != "not in allowlist" {
			t.Errorf("blocked %s with reason %q, want not in allowlist", b.Name, b.Reason)
		}
	}
}

func TestApply_DenylistWinsOverAllowlist(t *testing.T) {
	policy := models.SafetyPolicy{
		Allowlist: []string{"fetch_pets", "create_pets"},
		Denylist:  []string{"create_pets"},
	}
	res := newTestEnforcer(policy).Apply(testTools())

	if len(res.Tools) != 1 || res.Tools[0].Name != "fetch_pets" {
		t.Fatalf("expected only fetch_pets, got %v", passedNames(res))
	}

	var denied *models.BlockedTool
	for i := range res.Blocked {
		if res.Blocked[i].Name == "create_pets" {
			denied = &res.Blocked[i]
		}
	}
	if denied == nil {
		t.Fatal("create_pets missing from blocked list")
	}
	if denied.Reason != "denylisted" {
		t.Errorf("expected denylisted, got %q", denied.Reason)
	}
}

func TestApply_BlockDestructive(t *testing.T) {
	policy := models.SafetyPolicy{BlockDestructive: true}
	res := newTestEnforcer(policy).Apply(testTools())

	for _, tool := range res.Tools {
		if tool.Safety == models.SafetyDestructive {
			t.Errorf("destructive tool %s passed the filter", tool.Name)
		}
	}
	found := false
	for _, b := range res.Blocked {
		if b.Name == "delete_pets" && b.Reason == "destructive blocked" {
			found = true
		}
	}
	if !found {
		t.Errorf("delete_pets not blocked as destructive: %v", res.Blocked)
	}
}

func TestApply_BlockDestructiveUsesReclassifiedLevel(t *testing.T) {
	// Stage-1 READ, but the description carries a destructive keyword:
	// the gate must see the stage-2 level
	tools := []models.ToolDefinition{
		{Name: "get_cache", Description: "Purge the cache on read", Safety: models.SafetyRead},
	}
	policy := models.SafetyPolicy{BlockDestructive: true}
	res := newTestEnforcer(policy).Apply(tools)

	if len(res.Tools) != 0 {
		t.Fatalf("reclassified destructive tool escaped the gate: %v", passedNames(res))
	}
	if len(res.Blocked) != 1 || res.Blocked[0].Reason != "destructive blocked" {
		t.Errorf("unexpected blocked list %v", res.Blocked)
	}
}

func TestApply_SafetyBadges(t *testing.T) {
	res := newTestEnforcer(models.SafetyPolicy{}).Apply(testTools())

	for _, tool := range res.Tools {
		switch tool.Name {
		case "fetch_pets":
			if strings.Contains(tool.Description, "[WRITES DATA]") || strings.Contains(tool.Description, "[DESTRUCTIVE") {
				t.Errorf("read tool got a badge: %q", tool.Description)
			}
		case "create_pets":
			if !strings.HasSuffix(tool.Description, " [WRITES DATA]") {
				t.Errorf("write badge missing: %q", tool.Description)
			}
		case "delete_pets":
			if !strings.HasSuffix(tool.Description, " [DESTRUCTIVE — may permanently delete data]") {
				t.Errorf("destructive badge missing: %q", tool.Description)
			}
		}
	}
}

func TestApply_BadgeNotDuplicated(t *testing.T) {
	tools := []models.ToolDefinition{
		{Name: "create_pets", Description: "Make a pet [WRITES DATA]", Safety: models.SafetyWrite},
	}
	res := newTestEnforcer(models.SafetyPolicy{}).Apply(tools)

	if got := strings.Count(res.Tools[0].Description, "[WRITES DATA]"); got != 1 {
		t.Errorf("badge appears %d times, want 1: %q", got, res.Tools[0].Description)
	}
}

func TestApply_RedactsSensitiveParams(t *testing.T) {
	tools := []models.ToolDefinition{
		{
			Name:        "fetch_account",
			Description: "Fetch account",
			Safety:      models.SafetyRead,
			Params: []models.ToolParam{
				{Name: "api_token", Description: "auth token", Type: "string"},
				{Name: "user_password", Description: "account password", Type: "string"},
				{Name: "ssn", Description: "social security number", Type: "string"},
				{Name: "creditCardNumber", Description: "pan", Type: "string"},
				{Name: "limit", Description: "page size", Type: "integer"},
			},
		},
	}
	res := newTestEnforcer(models.SafetyPolicy{}).Apply(tools)

	params := res.Tools[0].Params
	for _, p := range params[:4] {
		if !strings.HasPrefix(p.Description, RedactedPrefix) {
			t.Errorf("param %s not redacted: %q", p.Name, p.Description)
		}
	}
	if strings.HasPrefix(params[4].Description, RedactedPrefix) {
		t.Errorf("benign param redacted: %q", params[4].Description)
	}
}

func TestApply_RedactionIdempotent(t *testing.T) {
	tools := []models.ToolDefinition{
		{
			Name:        "fetch_account",
			Description: "Fetch account",
			Safety:      models.SafetyRead,
			Params:      []models.ToolParam{{Name: "token", Description: "auth", Type: "string"}},
		},
	}
	e := newTestEnforcer(models.SafetyPolicy{})

	once := e.Apply(tools)
	twice := e.Apply(once.Tools)

	desc := twice.Tools[0].Params[0].Description
	if got := strings.Count(desc, RedactedPrefix); got != 1 {
		t.Errorf("redaction prefix applied %d times, want 1: %q", got, desc)
	}
}

func TestApply_CustomRedactPatterns(t *testing.T) {
	policy := models.SafetyPolicy{RedactPatterns: []string{`(?i)internal_`}}
	tools := []models.ToolDefinition{
		{
			Name:        "fetch_x",
			Description: "x",
			Safety:      models.SafetyRead,
			Params: []models.ToolParam{
				{Name: "internal_id", Description: "d", Type: "string"},
				{Name: "password", Description: "d", Type: "string"},
			},
		},
	}
	res := newTestEnforcer(policy).Apply(tools)

	params := res.Tools[0].Params
	if !strings.HasPrefix(params[0].Description, RedactedPrefix) {
		t.Error("custom pattern did not redact internal_id")
	}
	// Custom patterns replace the defaults
	if strings.HasPrefix(params[1].Description, RedactedPrefix) {
		t.Error("default pattern applied despite custom list")
	}
}

func TestApply_InvalidRedactPatternSkipped(t *testing.T) {
	policy := models.SafetyPolicy{RedactPatterns: []string{`([unclosed`, `(?i)secret`}}
	tools := []models.ToolDefinition{
		{
			Name:        "fetch_x",
			Description: "x",
			Safety:      models.SafetyRead,
			Params:      []models.ToolParam{{Name: "client_secret", Description: "d", Type: "string"}},
		},
	}
	res := newTestEnforcer(policy).Apply(tools)

	if !strings.HasPrefix(res.Tools[0].Params[0].Description, RedactedPrefix) {
		t.Error("valid pattern should survive an invalid sibling")
	}
}

func TestApply_MaxToolsCap(t *testing.T) {
	tools := []models.ToolDefinition{
		{Name: "a", Description: "x", Safety: models.SafetyRead},
		{Name: "b", Description: "x", Safety: models.SafetyRead},
		{Name: "c", Description: "x", Safety: models.SafetyRead},
		{Name: "d", Description: "x", Safety: models.SafetyRead},
		{Name: "e", Description: "x", Safety: models.SafetyRead},
	}
	policy := models.SafetyPolicy{MaxTools: 2}
	res := newTestEnforcer(policy).Apply(tools)

	if len(res.Tools) != 2 {
		t.Fatalf("expected 2 tools after cap, got %d", len(res.Tools))
	}
	if res.Tools[0].Name != "a" || res.Tools[1].Name != "b" {
		t.Errorf("cap should keep the first entries in order, got %v", passedNames(res))
	}
	// Truncation is silent
	if len(res.Blocked) != 0 {
		t.Errorf("cap must not create blocked entries, got %v", res.Blocked)
	}
}

func TestApply_InputNotMutated(t *testing.T) {
	tools := []models.ToolDefinition{
		{
			Name:        "create_pets",
			Description: "Make a pet",
			Safety:      models.SafetyWrite,
			Params:      []models.ToolParam{{Name: "owner_token", Description: "auth", Type: "string"}},
		},
	}
	newTestEnforcer(models.SafetyPolicy{}).Apply(tools)

	if tools[0].Description != "Make a pet" {
		t.Errorf("input description mutated: %q", tools[0].Description)
	}
	if tools[0].Params[0].Description != "auth" {
		t.Errorf("input param mutated: %q", tools[0].Params[0].Description)
	}
}

func TestApply_OrderAndCounts(t *testing.T) {
	res := newTestEnforcer(models.SafetyPolicy{}).Apply(testTools())

	want := []string{"fetch_pets", "create_pets", "delete_pets"}
	got := passedNames(res)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order changed: got %v, want %v", got, want)
		}
	}
	if res.Counts.Read != 1 || res.Counts.Write != 1 || res.Counts.Destructive != 1 {
		t.Errorf("counts wrong: %+v", res.Counts)
	}
}

func TestApply_EmptyInput(t *testing.T) {
	res := newTestEnforcer(models.SafetyPolicy{}).Apply(nil)
	if len(res.Tools) != 0 || len(res.Blocked) != 0 {
		t.Errorf("expected empty result, got %d tools %d blocked", len(res.Tools), len(res.Blocked))
	}
}
