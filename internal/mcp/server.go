// Package mcp registers mined tools on a live MCP server and dispatches
// calls to the upstream API.
package mcp

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

// Server wraps the underlying MCP server together with the dispatcher and
// the currently registered tool set, so watch mode can reconcile tools
// after the spec source changes.
type Server struct {
	mcpServer      *server.MCPServer
	httpServer     *server.StreamableHTTPServer
	dispatcher     *Dispatcher
	requireConfirm bool
	logger         *common.Logger

	mu         sync.Mutex
	registered map[string]models.ToolDefinition
}

// NewServer creates an MCP server named after the API it fronts. An
// empty summary falls back to a generic blurb; safety guidance is always
// appended. The toolsmith_version tool is always registered; mined tools
// are added via RegisterTools.
func NewServer(name, version, summary string, dispatcher *Dispatcher, requireConfirm bool, logger *common.Logger) *Server {
	if summary == "" {
		summary = fmt.Sprintf("%s exposes an upstream REST API as safety-annotated tools.", name)
	}
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(summary+
			" Read tools are safe to call freely; tools marked [WRITES DATA] or [DESTRUCTIVE] change upstream state."),
	)

	s := &Server{
		mcpServer:      mcpServer,
		dispatcher:     dispatcher,
		requireConfirm: requireConfirm,
		logger:         logger,
		registered:     make(map[string]models.ToolDefinition),
	}

	mcpServer.AddTool(VersionTool(), s.versionHandler())

	return s
}

// RegisterTools reconciles the registered tool set against tools: names no
// longer present are deleted, new or changed definitions are (re)added.
// Unchanged tools are left alone so clients are not notified needlessly.
func (s *Server) RegisterTools(tools []models.ToolDefinition) (added, removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	incoming := make(map[string]models.ToolDefinition, len(tools))
	for _, def := range tools {
		incoming[def.Name] = def
	}

	var stale []string
	for name := range s.registered {
		if _, ok := incoming[name]; !ok {
			stale = append(stale, name)
		}
	}
	if len(stale) > 0 {
		sort.Strings(stale)
		s.mcpServer.DeleteTools(stale...)
	}

	for _, def := range tools {
		prev, ok := s.registered[def.Name]
		if ok && reflect.DeepEqual(prev, def) {
			continue
		}
		s.mcpServer.AddTool(BuildTool(def, s.requireConfirm), Handler(s.dispatcher, def, s.requireConfirm))
		added++
	}

	s.registered = incoming

	s.logger.Info().
		Int("tools", len(incoming)).
		Int("added", added).
		Int("removed", len(stale)).
		Msg("Tool registration reconciled")

	return added, len(stale)
}

// ToolNames returns the registered mined tool names in sorted order.
func (s *Server) ToolNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.registered))
	for name := range s.registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServeStdio serves MCP over stdin/stdout and blocks until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP serves MCP over streamable HTTP on addr and blocks until
// Shutdown is called or the listener fails.
func (s *Server) ServeHTTP(addr string) error {
	s.httpServer = server.NewStreamableHTTPServer(s.mcpServer, server.WithStateLess(true))
	s.logger.Info().Str("addr", addr).Msg("MCP server listening")
	return s.httpServer.Start(addr)
}

// Shutdown stops the HTTP transport, if one is serving.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
