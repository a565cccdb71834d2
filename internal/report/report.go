// Package report renders the mining outcome two ways: an indented JSON
// manifest for downstream tooling and a markdown document for humans.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bobmcallan/toolsmith/internal/models"
)

// WriteJSON writes the machine-readable manifest. The JSON shape is the
// contract consumed by code generators and the MCP server alike.
func WriteJSON(w io.Writer, rep *models.MiningReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode mining report: %w", err)
	}
	return nil
}

// WriteMarkdown writes the human-readable report.
func WriteMarkdown(w io.Writer, rep *models.MiningReport) error {
	if _, err := io.WriteString(w, Markdown(rep)); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

// Markdown formats a mining report as a markdown document.
func Markdown(rep *models.MiningReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Tool Mining Report: %s\n\n", rep.Title))
	sb.WriteString(fmt.Sprintf("**Version:** %s\n", rep.Version))
	if rep.Source != "" {
		sb.WriteString(fmt.Sprintf("**Source:** %s\n", rep.Source))
	}
	if rep.BaseURL != "" {
		sb.WriteString(fmt.Sprintf("**Base URL:** %s\n", rep.BaseURL))
	}
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04")))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Count |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Endpoints | %d |\n", rep.EndpointCount))
	sb.WriteString(fmt.Sprintf("| Groups | %d |\n", rep.GroupCount))
	sb.WriteString(fmt.Sprintf("| Mined tools | %d |\n", rep.MinedCount))
	sb.WriteString(fmt.Sprintf("| Passed policy | %d |\n", rep.PassedCount))
	sb.WriteString(fmt.Sprintf("| Read | %d |\n", rep.Counts.Read))
	sb.WriteString(fmt.Sprintf("| Write | %d |\n", rep.Counts.Write))
	sb.WriteString(fmt.Sprintf("| Destructive | %d |\n", rep.Counts.Destructive))
	sb.WriteString(fmt.Sprintf("| Blocked | %d |\n", len(rep.Blocked)))
	sb.WriteString(fmt.Sprintf("| Dropped | %d |\n", len(rep.Dropped)))
	sb.WriteString("\n")

	if len(rep.Tools) > 0 {
		sb.WriteString("## Tools\n\n")
		sb.WriteString("| Tool | Safety | Params | Endpoints | Description |\n")
		sb.WriteString("|------|--------|--------|-----------|-------------|\n")
		for _, t := range rep.Tools {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				t.Name, t.Safety, paramList(t.Params), endpointList(t.Endpoints), truncate(t.Description, 60)))
		}
		sb.WriteString("\n*Parameters marked with `*` are required.*\n\n")
	}

	if len(rep.Blocked) > 0 {
		sb.WriteString("## Blocked\n\n")
		sb.WriteString("| Tool | Reason |\n")
		sb.WriteString("|------|--------|\n")
		for _, b := range rep.Blocked {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", b.Name, b.Reason))
		}
		sb.WriteString("\n")
	}

	if len(rep.Dropped) > 0 {
		sb.WriteString("## Dropped\n\n")
		sb.WriteString("| Tool | Method | Path | Reason |\n")
		sb.WriteString("|------|--------|------|--------|\n")
		for _, d := range rep.Dropped {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", d.Name, d.Method, d.Path, d.Reason))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Enhancement\n\n")
	switch {
	case rep.Enhancement.Applied:
		sb.WriteString("Applied.\n\n")
	case rep.Enhancement.Reason != "":
		sb.WriteString(fmt.Sprintf("Not applied: %s.\n\n", rep.Enhancement.Reason))
	default:
		sb.WriteString("Not applied.\n\n")
	}

	if len(rep.Stages) > 0 {
		sb.WriteString("## Stage Timings\n\n")
		sb.WriteString("| Stage | Duration |\n")
		sb.WriteString("|-------|----------|\n")
		for _, s := range rep.Stages {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", s.Stage, s.Duration.Round(time.Microsecond)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// paramList renders parameter names for a table cell, marking required
// ones with a trailing asterisk.
func paramList(params []models.ToolParam) string {
	if len(params) == 0 {
		return "-"
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
		if p.Required {
			names[i] += "*"
		}
	}
	return strings.Join(names, ", ")
}

func endpointList(eps []models.Endpoint) string {
	if len(eps) == 0 {
		return "-"
	}
	parts := make([]string, len(eps))
	for i, ep := range eps {
		parts[i] = ep.Method + " " + ep.Path
	}
	return strings.Join(parts, "; ")
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
