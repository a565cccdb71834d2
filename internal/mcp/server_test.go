package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/toolsmith/internal/cache"
	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

func testServer() *Server {
	d := NewDispatcher("http://localhost:1", time.Second, common.NewSilentLogger(), cache.New(time.Minute, 10))
	return NewServer("petstore", "1.0.0", "", d, false, common.NewSilentLogger())
}

// listTools calls tools/list on the underlying MCP server and returns the tools.
func listTools(t *testing.T, s *Server) []mcp.Tool {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	result := s.mcpServer.HandleMessage(context.Background(), msg)

	resp, ok := result.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolsResult mcp.ListToolsResult
	if err := json.Unmarshal(resultJSON, &toolsResult); err != nil {
		t.Fatalf("failed to unmarshal ListToolsResult: %v", err)
	}

	return toolsResult.Tools
}

func toolNameSet(tools []mcp.Tool) map[string]bool {
	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		names[tool.Name] = true
	}
	return names
}

func TestRegisterTools_InitialRegistration(t *testing.T) {
	s := testServer()

	added, removed := s.RegisterTools([]models.ToolDefinition{searchPetsDef(), deletePetDef()})
	if added != 2 {
		t.Errorf("Expected 2 added, got %d", added)
	}
	if removed != 0 {
		t.Errorf("Expected 0 removed, got %d", removed)
	}

	names := s.ToolNames()
	if len(names) != 2 || names[0] != "delete_pets" || names[1] != "search_pets" {
		t.Errorf("Unexpected tool names: %v", names)
	}
}

func TestRegisterTools_UnchangedToolsSkipped(t *testing.T) {
	s := testServer()

	s.RegisterTools([]models.ToolDefinition{searchPetsDef(), deletePetDef()})
	added, removed := s.RegisterTools([]models.ToolDefinition{searchPetsDef(), deletePetDef()})

	if added != 0 {
		t.Errorf("Re-registering identical tools should add none, got %d", added)
	}
	if removed != 0 {
		t.Errorf("Re-registering identical tools should remove none, got %d", removed)
	}
}

func TestRegisterTools_ChangedToolReadded(t *testing.T) {
	s := testServer()
	s.RegisterTools([]models.ToolDefinition{searchPetsDef()})

	changed := searchPetsDef()
	changed.Description = "Search or list pets with new filters."
	added, removed := s.RegisterTools([]models.ToolDefinition{changed})

	if added != 1 {
		t.Errorf("Changed tool should be re-added, got added=%d", added)
	}
	if removed != 0 {
		t.Errorf("Expected 0 removed, got %d", removed)
	}
}

func TestRegisterTools_RemovedToolDeleted(t *testing.T) {
	s := testServer()
	s.RegisterTools([]models.ToolDefinition{searchPetsDef(), deletePetDef()})

	added, removed := s.RegisterTools([]models.ToolDefinition{searchPetsDef()})
	if added != 0 {
		t.Errorf("Expected 0 added, got %d", added)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	names := s.ToolNames()
	if len(names) != 1 || names[0] != "search_pets" {
		t.Errorf("Unexpected tool names after removal: %v", names)
	}
}

func TestRegisterTools_EmptySetClearsAll(t *testing.T) {
	s := testServer()
	s.RegisterTools([]models.ToolDefinition{searchPetsDef(), deletePetDef()})

	added, removed := s.RegisterTools(nil)
	if added != 0 || removed != 2 {
		t.Errorf("Expected 0 added and 2 removed, got %d/%d", added, removed)
	}
	if len(s.ToolNames()) != 0 {
		t.Errorf("Expected no tools, got %v", s.ToolNames())
	}
}

func TestRegisterTools_LiveServerState(t *testing.T) {
	s := testServer()
	s.RegisterTools([]models.ToolDefinition{searchPetsDef(), deletePetDef()})

	names := toolNameSet(listTools(t, s))
	if len(names) != 3 {
		t.Fatalf("Expected 3 tools on the server, got %v", names)
	}
	for _, want := range []string{"search_pets", "delete_pets", "toolsmith_version"} {
		if !names[want] {
			t.Errorf("Expected %s on the server, got %v", want, names)
		}
	}

	s.RegisterTools([]models.ToolDefinition{searchPetsDef()})

	names = toolNameSet(listTools(t, s))
	if names["delete_pets"] {
		t.Error("delete_pets should be gone after reconciliation")
	}
	if !names["search_pets"] || !names["toolsmith_version"] {
		t.Errorf("search_pets and toolsmith_version should survive reconciliation, got %v", names)
	}
}

func TestVersionHandler(t *testing.T) {
	common.LoadVersionFromFile()

	s := testServer()
	s.RegisterTools([]models.ToolDefinition{searchPetsDef(), deletePetDef()})

	result, err := s.versionHandler()(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}

	var info versionInfo
	if err := json.Unmarshal([]byte(resultText(t, result)), &info); err != nil {
		t.Fatalf("Version output should be JSON: %v", err)
	}
	if info.Tools != 2 {
		t.Errorf("Expected 2 registered tools, got %d", info.Tools)
	}
	if info.Upstream != "http://localhost:1" {
		t.Errorf("Expected upstream URL, got %q", info.Upstream)
	}
	if info.Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestVersionTool_Definition(t *testing.T) {
	tool := VersionTool()

	if tool.Name != "toolsmith_version" {
		t.Errorf("Unexpected tool name: %s", tool.Name)
	}
	if !strings.Contains(tool.Description, "connectivity") {
		t.Errorf("Description should mention connectivity, got %q", tool.Description)
	}
	if tool.Annotations.ReadOnlyHint == nil || !*tool.Annotations.ReadOnlyHint {
		t.Error("Version tool should be read-only")
	}
}

func TestShutdown_NoHTTPServer(t *testing.T) {
	s := testServer()
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown without HTTP transport should be a no-op, got %v", err)
	}
}
