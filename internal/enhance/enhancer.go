package enhance

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

// Result is the explicit outcome of an enhancement attempt: either the
// enhanced tools, or the untouched originals plus the reason they were
// kept. Callers branch on Enhanced instead of relying on silent
// fallback.
type Result struct {
	Tools    []models.ToolDefinition
	Enhanced bool
	Reason   string
}

// unavailable wraps the originals with the skip reason.
func unavailable(tools []models.ToolDefinition, reason string) *Result {
	return &Result{Tools: tools, Enhanced: false, Reason: reason}
}

// toolSummary is the compact tool view sent to the model.
type toolSummary struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Safety      string            `json:"safety"`
	Params      []paramSummary    `json:"params"`
	Endpoints   []endpointSummary `json:"endpoints"`
}

type paramSummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

type endpointSummary struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// enhancementRecord is one element of the model's response array,
// matched positionally against the input tools.
type enhancementRecord struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Safety      string        `json:"safety"`
	Params      []paramRecord `json:"params"`
}

type paramRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const enhanceSystemPrompt = "You are an API expert. You are given a list of auto-generated MCP tool " +
	"definitions derived from an API specification. Your job is to enhance them:\n" +
	"1. Improve tool descriptions to be clear and concise for an AI agent.\n" +
	"2. Improve parameter descriptions where they are missing or generic.\n" +
	"3. Suggest a better tool name if the current one is unclear (keep it snake_case).\n" +
	"4. Verify the safety classification (read/write/destructive).\n\n" +
	"Return ONLY a JSON array where each element has:\n" +
	`  {"name": "...", "description": "...", "safety": "read|write|destructive", ` +
	`"params": [{"name": "...", "description": "..."}]}` + "\n\n" +
	"Keep the same number of tools. Do not add or remove tools. " +
	"Return valid JSON only, no markdown fences, no extra text."

const summarizeSystemPrompt = "You are an API documentation expert. Given an API spec summary, " +
	"write a 2-3 sentence description of what this API does and " +
	"what an AI agent can accomplish with it. Be concise."

// Enhancer runs the optional cosmetic pass over mined tools.
type Enhancer struct {
	client *Client
	logger *common.Logger
}

// New creates an enhancer over a completion client.
func New(client *Client, logger *common.Logger) *Enhancer {
	return &Enhancer{client: client, logger: logger}
}

// Enhance asks the model for improved names, descriptions, and safety
// levels. The contract is strict: exactly one record per input tool,
// matched by position. Any transport, decoding, or count failure
// returns the originals with the reason recorded. The input list is
// never mutated.
func (e *Enhancer) Enhance(ctx context.Context, spec *models.APISpec, tools []models.ToolDefinition) *Result {
	started := time.Now()
	e.logger.Info().
		Str("stage", "enhance").
		Str("api", spec.Title).
		Int("tools", len(tools)).
		Msg("Enhancement started")

	if len(tools) == 0 {
		return unavailable(tools, "no tools to enhance")
	}

	summaries := make([]toolSummary, len(tools))
	for i, t := range tools {
		s := toolSummary{
			Name:        t.Name,
			Description: t.Description,
			Safety:      string(t.Safety),
			Params:      make([]paramSummary, len(t.Params)),
			Endpoints:   make([]endpointSummary, len(t.Endpoints)),
		}
		for j, p := range t.Params {
			s.Params[j] = paramSummary{Name: p.Name, Type: p.Type, Required: p.Required, Description: p.Description}
		}
		for j, ep := range t.Endpoints {
			s.Endpoints[j] = endpointSummary{Method: ep.Method, Path: ep.Path}
		}
		summaries[i] = s
	}
	summaryJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return unavailable(tools, "failed to encode tool summaries: "+err.Error())
	}

	var user strings.Builder
	user.WriteString("API: " + spec.Title + " v" + spec.Version + "\n")
	user.WriteString("Base URL: " + spec.BaseURL + "\n")
	user.WriteString("Description: " + spec.Description + "\n\n")
	user.WriteString("Tools to enhance:\n")
	user.Write(summaryJSON)

	raw, err := e.client.Complete(ctx, enhanceSystemPrompt, user.String(), 4096)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Enhancement unavailable, keeping original tools")
		return unavailable(tools, err.Error())
	}

	var records []enhancementRecord
	if err := json.Unmarshal([]byte(stripFences(raw)), &records); err != nil {
		e.logger.Warn().Err(err).Msg("Enhancement response unparseable, keeping original tools")
		return unavailable(tools, "response parse error: "+err.Error())
	}
	if len(records) != len(tools) {
		e.logger.Warn().
			Int("got", len(records)).
			Int("want", len(tools)).
			Msg("Enhancement count mismatch, keeping original tools")
		return unavailable(tools, "response count mismatch")
	}

	enhanced := make([]models.ToolDefinition, len(tools))
	renamed := 0
	for i, t := range tools {
		tool := t.Clone()
		rec := records[i]

		if rec.Name != "" && rec.Name != tool.Name {
			e.logger.Info().Str("from", tool.Name).Str("to", rec.Name).Msg("Renamed tool")
			tool.Name = rec.Name
			renamed++
		}
		if rec.Description != "" {
			tool.Description = rec.Description
		}
		if level, ok := models.ParseSafetyLevel(rec.Safety); ok {
			tool.Safety = level
		}
		if len(rec.Params) > 0 {
			byName := make(map[string]string, len(rec.Params))
			for _, p := range rec.Params {
				if p.Description != "" {
					byName[p.Name] = p.Description
				}
			}
			for j := range tool.Params {
				if desc, ok := byName[tool.Params[j].Name]; ok {
					tool.Params[j].Description = desc
				}
			}
		}
		enhanced[i] = tool
	}

	e.logger.Info().
		Int("tools", len(enhanced)).
		Int("renamed", renamed).
		Dur("elapsed", time.Since(started)).
		Msg("Enhancement complete")
	return &Result{Tools: enhanced, Enhanced: true}
}

// Summarize produces a short instructions blurb for the generated
// server. Failures fall back to the spec's own description.
func (e *Enhancer) Summarize(ctx context.Context, spec *models.APISpec) string {
	var user strings.Builder
	user.WriteString("API: " + spec.Title + " v" + spec.Version + "\n")
	user.WriteString("Base URL: " + spec.BaseURL + "\n")
	user.WriteString("Description: " + spec.Description + "\n")
	user.WriteString("Endpoints: " + strconv.Itoa(len(spec.Endpoints)) + "\n")
	user.WriteString("Tags: " + strings.Join(spec.Tags, ", "))

	summary, err := e.client.Complete(ctx, summarizeSystemPrompt, user.String(), 256)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Summary generation failed, using spec description")
		if spec.Description != "" {
			return spec.Description
		}
		return "MCP server for " + spec.Title
	}
	return strings.TrimSpace(summary)
}

// stripFences removes markdown code fences some models wrap around
// JSON, keeping everything between them.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
