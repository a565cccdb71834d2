// Command toolsmith runs the mining pipeline once and writes the surviving
// tool definitions and a mining report to the output directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/config"
	"github.com/bobmcallan/toolsmith/internal/models"
	"github.com/bobmcallan/toolsmith/internal/pipeline"
	"github.com/bobmcallan/toolsmith/internal/report"
)

var (
	specSource  = flag.String("spec", "", "Path or URL of the OpenAPI/Swagger spec (overrides config)")
	configFile  = flag.String("config", "", "Path to TOML config file")
	outDir      = flag.String("out", "", "Output directory (overrides config)")
	serverName  = flag.String("name", "", "Server name (default: derived from the spec source)")
	enhance     = flag.Bool("enhance", false, "Enhance tool descriptions with an LLM provider")
	markdown    = flag.Bool("markdown", false, "Also write the markdown report")
	showVersion = flag.Bool("version", false, "Print version information")
)

// toolsArtifact is the document written to tools.json: the API identity
// plus every tool that survived the safety policy.
type toolsArtifact struct {
	Name    string                  `json:"name"`
	Title   string                  `json:"title"`
	Version string                  `json:"version"`
	BaseURL string                  `json:"base_url,omitempty"`
	Tools   []models.ToolDefinition `json:"tools"`
}

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion {
		fmt.Printf("toolsmith version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	cfg, err := config.LoadFromFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *specSource != "" {
		cfg.Spec.Source = *specSource
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *enhance {
		cfg.Enhance.Enabled = true
	}

	if cfg.Spec.Source == "" {
		fmt.Fprintln(os.Stderr, "No spec source given. Pass -spec <path|url> or set spec.source in the config.")
		flag.Usage()
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	outcome, err := pipeline.Run(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("Pipeline failed")
		os.Exit(1)
	}

	if len(outcome.Tools) == 0 {
		logger.Error().Msg("No tools survived the safety policy. Nothing to write.")
		os.Exit(2)
	}

	name := *serverName
	if name == "" {
		name = pipeline.DeriveName(cfg.Spec.Source)
	}

	targetDir := filepath.Join(cfg.Output.Dir, name)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		logger.Error().Str("dir", targetDir).Str("error", err.Error()).Msg("Failed to create output directory")
		os.Exit(1)
	}

	if err := writeArtifacts(targetDir, name, outcome, *markdown); err != nil {
		logger.Error().Str("error", err.Error()).Msg("Failed to write output")
		os.Exit(1)
	}

	logger.Info().
		Str("server", name).
		Int("tools", len(outcome.Tools)).
		Str("output", targetDir).
		Msg("Tools written")
}

// writeArtifacts writes tools.json and report.json, plus report.md when
// requested.
func writeArtifacts(dir, name string, outcome *pipeline.Outcome, withMarkdown bool) error {
	artifact := toolsArtifact{
		Name:    name,
		Title:   outcome.Spec.Title,
		Version: outcome.Spec.Version,
		BaseURL: outcome.Spec.BaseURL,
		Tools:   outcome.Tools,
	}

	if err := writeJSONFile(filepath.Join(dir, "tools.json"), artifact); err != nil {
		return err
	}

	reportPath := filepath.Join(dir, "report.json")
	rf, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", reportPath, err)
	}
	if err := report.WriteJSON(rf, outcome.Report); err != nil {
		rf.Close()
		return err
	}
	if err := rf.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", reportPath, err)
	}

	if withMarkdown {
		mdPath := filepath.Join(dir, "report.md")
		mf, err := os.Create(mdPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", mdPath, err)
		}
		if err := report.WriteMarkdown(mf, outcome.Report); err != nil {
			mf.Close()
			return err
		}
		if err := mf.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", mdPath, err)
		}
	}

	return nil
}

// writeJSONFile writes v as indented JSON to path.
func writeJSONFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
