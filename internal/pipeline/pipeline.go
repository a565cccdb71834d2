// Package pipeline chains the mining stages: ingest, mine, policy,
// optional enhancement, report. Each stage is timed, and the assembled
// report carries everything a caller needs to render or serve the
// outcome.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/config"
	"github.com/bobmcallan/toolsmith/internal/enhance"
	"github.com/bobmcallan/toolsmith/internal/ingest"
	"github.com/bobmcallan/toolsmith/internal/mine"
	"github.com/bobmcallan/toolsmith/internal/models"
	"github.com/bobmcallan/toolsmith/internal/policy"
)

// Outcome bundles everything a caller needs after a run: the parsed
// spec, the surviving tools, the assembled report, and a summary blurb
// for MCP server instructions.
type Outcome struct {
	Spec    *models.APISpec
	Tools   []models.ToolDefinition
	Report  *models.MiningReport
	Summary string
}

// Run executes the full pipeline over the configured spec source.
// Ingestion failures abort the run; mining and policy never fail. Zero
// surviving tools is not an error at this layer: the CLI exits non-zero
// and the server refuses to start, but library callers may want the
// report anyway.
func Run(ctx context.Context, cfg *config.Config, logger *common.Logger) (*Outcome, error) {
	started := time.Now()
	var stages []models.StageTiming
	timed := func(stage string, since time.Time) {
		stages = append(stages, models.StageTiming{Stage: stage, Duration: time.Since(since)})
	}

	logger.Info().Str("source", cfg.Spec.Source).Msg("Pipeline started")

	stageStart := time.Now()
	loader := ingest.NewLoader(cfg.Upstream.Timeout(), logger)
	spec, err := loader.Load(ctx, cfg.Spec.Source)
	if err != nil {
		return nil, fmt.Errorf("ingest stage failed: %w", err)
	}
	timed("ingest", stageStart)

	stageStart = time.Now()
	mined := mine.Mine(spec, logger)
	timed("mine", stageStart)

	stageStart = time.Now()
	enforced := policy.NewEnforcer(cfg.Policy, logger).Apply(mined.Tools)
	timed("policy", stageStart)

	tools := enforced.Tools
	counts := enforced.Counts
	summary := spec.Description
	enhancement := models.EnhancementStatus{Reason: "enhancement disabled"}

	switch {
	case cfg.Enhance.Enabled && len(tools) > 0:
		stageStart = time.Now()
		providers := enhance.ResolveProviders(cfg.Enhance.Providers)
		client := enhance.NewClient(providers, cfg.Enhance.Timeout(), logger)
		enhancer := enhance.New(client, logger)
		res := enhancer.Enhance(ctx, spec, tools)
		tools = res.Tools
		enhancement = models.EnhancementStatus{Applied: res.Enhanced, Reason: res.Reason}
		if res.Enhanced {
			// Enhancement may reclassify tools, so the policy counts
			// are recomputed over the final list.
			counts = countByLevel(tools)
			summary = enhancer.Summarize(ctx, spec)
		}
		timed("enhance", stageStart)
	case cfg.Enhance.Enabled:
		enhancement = models.EnhancementStatus{Reason: "no tools to enhance"}
	}

	rep := &models.MiningReport{
		Source:        cfg.Spec.Source,
		Title:         spec.Title,
		Version:       spec.Version,
		BaseURL:       spec.BaseURL,
		GeneratedAt:   time.Now().UTC(),
		EndpointCount: len(spec.Endpoints),
		GroupCount:    mined.Groups,
		MinedCount:    len(mined.Tools),
		PassedCount:   len(tools),
		Counts:        counts,
		Tools:         tools,
		Blocked:       enforced.Blocked,
		Dropped:       mined.Dropped,
		Enhancement:   enhancement,
		Stages:        stages,
	}

	logger.Info().
		Str("api", spec.Title).
		Int("endpoints", len(spec.Endpoints)).
		Int("mined", len(mined.Tools)).
		Int("passed", len(tools)).
		Dur("elapsed", time.Since(started)).
		Msg("Pipeline complete")

	return &Outcome{Spec: spec, Tools: tools, Report: rep, Summary: summary}, nil
}

func countByLevel(tools []models.ToolDefinition) models.SafetyCounts {
	var counts models.SafetyCounts
	for _, t := range tools {
		switch t.Safety {
		case models.SafetyWrite:
			counts.Write++
		case models.SafetyDestructive:
			counts.Destructive++
		default:
			counts.Read++
		}
	}
	return counts
}

var nonAlnumRE = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveName derives a server name from the spec source: the file stem,
// or for URLs the last segment before its first dot, lowercased with
// non-alphanumeric runs collapsed to hyphens.
func DeriveName(source string) string {
	var name string
	if strings.HasPrefix(source, "http") {
		segments := strings.Split(source, "/")
		name = strings.SplitN(segments[len(segments)-1], ".", 2)[0]
	} else {
		base := filepath.Base(source)
		name = strings.TrimSuffix(base, filepath.Ext(base))
		if name == "" {
			name = base
		}
	}
	name = strings.Trim(nonAlnumRE.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if name == "" {
		return "mcp-server"
	}
	return name
}
