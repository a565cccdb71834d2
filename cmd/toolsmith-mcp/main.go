// Command toolsmith-mcp mines tools from an API description and serves them
// over MCP, dispatching tool calls to the upstream API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bobmcallan/toolsmith/internal/cache"
	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/config"
	"github.com/bobmcallan/toolsmith/internal/mcp"
	"github.com/bobmcallan/toolsmith/internal/pipeline"
)

var (
	configFile  = flag.String("config", "", "Path to TOML config file")
	specSource  = flag.String("spec", "", "Path or URL of the OpenAPI/Swagger spec (overrides config)")
	upstreamURL = flag.String("upstream", "", "Upstream API base URL (overrides config and spec)")
	serverPort  = flag.Int("port", 0, "HTTP port to bind (overrides config)")
	serverHost  = flag.String("host", "", "HTTP host to bind (overrides config)")
	stdio       = flag.Bool("stdio", false, "Use stdio transport (for desktop MCP clients)")
	watch       = flag.Bool("watch", false, "Re-mine and reconcile tools when the spec file changes")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion {
		fmt.Printf("toolsmith-mcp version %s\n", common.GetFullVersion())
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
	if *upstreamURL != "" {
		cfg.Upstream.URL = *upstreamURL
	}
	if *watch {
		cfg.Watch.Enabled = true
	}
	config.ApplyFlagOverrides(cfg, *serverPort, *serverHost)

	if cfg.Spec.Source == "" {
		fmt.Fprintln(os.Stderr, "No spec source given. Pass -spec <path|url> or set spec.source in the config.")
		flag.Usage()
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcome, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("Pipeline failed")
		os.Exit(1)
	}

	if len(outcome.Tools) == 0 {
		logger.Error().Msg("No tools survived the safety policy, refusing to start")
		os.Exit(2)
	}

	// The spec's own base URL serves as the upstream unless one is configured.
	upstream := cfg.Upstream.URL
	if upstream == "" {
		upstream = outcome.Spec.BaseURL
	}
	if upstream == "" {
		logger.Error().Msg("No upstream URL. Pass -upstream, set upstream.url, or use a spec with a server URL.")
		os.Exit(1)
	}

	responseCache := cache.New(cfg.Cache.TTL(), cfg.Cache.MaxEntries)
	dispatcher := mcp.NewDispatcher(upstream, cfg.Upstream.Timeout(), logger, responseCache)

	name := pipeline.DeriveName(cfg.Spec.Source)
	srv := mcp.NewServer(name, common.GetVersion(), outcome.Summary, dispatcher, cfg.Policy.RequireWriteConfirmation, logger)
	srv.RegisterTools(outcome.Tools)

	logger.Info().
		Str("server", name).
		Int("tools", len(outcome.Tools)).
		Str("upstream", upstream).
		Msg("MCP server initialized")

	if cfg.Watch.Enabled {
		startWatch(ctx, cfg, srv, logger)
	}

	if *stdio {
		if err := srv.ServeStdio(); err != nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ServeHTTP(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errChan:
		if err != nil {
			logger.Error().Str("error", err.Error()).Msg("server failed")
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

// startWatch begins watch mode for local spec files. A change re-runs the
// pipeline and reconciles the registered tools; failed reloads keep the
// current tool set.
func startWatch(ctx context.Context, cfg *config.Config, srv *mcp.Server, logger *common.Logger) {
	if strings.HasPrefix(cfg.Spec.Source, "http") {
		logger.Warn().Str("source", cfg.Spec.Source).Msg("watch mode only supports local spec files")
		return
	}

	reload := func(rctx context.Context) error {
		refreshed, err := pipeline.Run(rctx, cfg, logger)
		if err != nil {
			return err
		}
		if len(refreshed.Tools) == 0 {
			return errors.New("no tools survived the safety policy")
		}
		added, removed := srv.RegisterTools(refreshed.Tools)
		logger.Info().Int("added", added).Int("removed", removed).Msg("Tools reconciled after spec change")
		return nil
	}

	go func() {
		if err := mcp.Watch(ctx, cfg.Spec.Source, cfg.Watch.Debounce(), logger, reload); err != nil {
			logger.Warn().Str("error", err.Error()).Msg("watch mode unavailable")
		}
	}()
}
