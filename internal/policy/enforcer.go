// Package policy applies a SafetyPolicy to a mined tool list: stage-2
// safety reclassification, allow/deny filtering, destructive blocking,
// badge annotation, parameter redaction, and capping.
package policy

import (
	"regexp"
	"strings"
	"time"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

// RedactedPrefix marks parameter descriptions the generated server must
// mask before echoing values anywhere.
const RedactedPrefix = "[REDACTED — sensitive field] "

// safetyBadges are appended to passed tool descriptions so MCP clients
// see side effects at a glance.
var safetyBadges = map[models.SafetyLevel]string{
	models.SafetyRead:        "",
	models.SafetyWrite:       " [WRITES DATA]",
	models.SafetyDestructive: " [DESTRUCTIVE — may permanently delete data]",
}

// Result is the outcome of one policy application. Tools keep their
// input order; Blocked is ordered for audit reporting.
type Result struct {
	Tools   []models.ToolDefinition
	Blocked []models.BlockedTool
	Counts  models.SafetyCounts
}

// Enforcer applies one immutable SafetyPolicy. Safe for reuse across
// tool lists; construction compiles all patterns once.
type Enforcer struct {
	policy     models.SafetyPolicy
	classifier *Classifier
	allow      map[string]struct{}
	deny       map[string]struct{}
	redact     []*regexp.Regexp
	logger     *common.Logger
}

// NewEnforcer builds an enforcer for the given policy. Empty redaction
// patterns resolve to the defaults; a pattern that fails to compile is
// logged and skipped rather than failing the run.
func NewEnforcer(policy models.SafetyPolicy, logger *common.Logger) *Enforcer {
	e := &Enforcer{
		policy:     policy,
		classifier: NewDefaultClassifier(),
		allow:      make(map[string]struct{}, len(policy.Allowlist)),
		deny:       make(map[string]struct{}, len(policy.Denylist)),
		logger:     logger,
	}
	for _, name := range policy.Allowlist {
		e.allow[name] = struct{}{}
	}
	for _, name := range policy.Denylist {
		e.deny[name] = struct{}{}
	}

	patterns := policy.RedactPatterns
	if len(patterns) == 0 {
		patterns = models.DefaultRedactPatterns
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn().Str("pattern", p).Err(err).Msg("Skipping invalid redaction pattern")
			continue
		}
		e.redact = append(e.redact, re)
	}
	return e
}

// WithClassifier swaps in a custom keyword classifier.
func (e *Enforcer) WithClassifier(c *Classifier) *Enforcer {
	e.classifier = c
	return e
}

// Apply runs the policy over a tool list and returns the surviving
// tools plus blocked-reason records. The input is never mutated; each
// stage works on its own copy. Never fails: conflicting configuration
// resolves through the fixed precedence below.
func (e *Enforcer) Apply(tools []models.ToolDefinition) *Result {
	started := time.Now()
	e.logger.Info().Str("stage", "policy").Int("candidates", len(tools)).Msg("Safety classification started")

	res := &Result{Tools: make([]models.ToolDefinition, 0, len(tools))}

	for _, in := range tools {
		tool := in.Clone()

		// 1. Stage-2 reclassification from name+description keywords
		if refined := e.classifier.Classify(tool); refined != tool.Safety {
			e.logger.Debug().
				Str("tool", tool.Name).
				Str("from", string(tool.Safety)).
				Str("to", string(refined)).
				Msg("Reclassified tool safety")
			tool.Safety = refined
		}

		// 2. Allowlist: empty allows all
		if len(e.allow) > 0 {
			if _, ok := e.allow[tool.Name]; !ok {
				res.Blocked = append(res.Blocked, models.BlockedTool{Name: tool.Name, Reason: "not in allowlist"})
				continue
			}
		}

		// 3. Denylist wins even over an allowlist match
		if _, ok := e.deny[tool.Name]; ok {
			res.Blocked = append(res.Blocked, models.BlockedTool{Name: tool.Name, Reason: "denylisted"})
			continue
		}

		// 4. Destructive gate, evaluated on the reclassified level
		if e.policy.BlockDestructive && tool.Safety == models.SafetyDestructive {
			res.Blocked = append(res.Blocked, models.BlockedTool{Name: tool.Name, Reason: "destructive blocked"})
			continue
		}

		// 5. Safety badge, unless the description already carries one
		if badge := safetyBadges[tool.Safety]; badge != "" && !strings.Contains(tool.Description, badge) {
			tool.Description += badge
		}

		// 6. Redact sensitive params
		e.redactParams(&tool)

		res.Tools = append(res.Tools, tool)
	}

	// 7. Cap. Truncated tools get no blocked entry.
	if e.policy.MaxTools > 0 && len(res.Tools) > e.policy.MaxTools {
		e.logger.Info().
			Int("cap", e.policy.MaxTools).
			Int("truncated", len(res.Tools)-e.policy.MaxTools).
			Msg("Applying max_tools cap")
		res.Tools = res.Tools[:e.policy.MaxTools]
	}

	if len(res.Blocked) > 0 {
		names := make([]string, len(res.Blocked))
		for i, b := range res.Blocked {
			names[i] = b.Name + " (" + b.Reason + ")"
		}
		e.logger.Info().Int("blocked", len(res.Blocked)).Strs("tools", names).Msg("Blocked tools by policy")
	}

	for _, t := range res.Tools {
		switch t.Safety {
		case models.SafetyWrite:
			res.Counts.Write++
		case models.SafetyDestructive:
			res.Counts.Destructive++
		default:
			res.Counts.Read++
		}
	}
	e.logger.Info().
		Int("passed", len(res.Tools)).
		Int("read", res.Counts.Read).
		Int("write", res.Counts.Write).
		Int("destructive", res.Counts.Destructive).
		Dur("elapsed", time.Since(started)).
		Msg("Safety classification complete")

	return res
}

// redactParams prefixes matching parameter descriptions. Guarded so a
// second application never double-prefixes.
func (e *Enforcer) redactParams(tool *models.ToolDefinition) {
	for i := range tool.Params {
		p := &tool.Params[i]
		if !e.shouldRedact(p.Name) || strings.HasPrefix(p.Description, RedactedPrefix) {
			continue
		}
		p.Description = RedactedPrefix + p.Description
	}
}

func (e *Enforcer) shouldRedact(name string) bool {
	for _, re := range e.redact {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
