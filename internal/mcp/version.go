package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/toolsmith/internal/common"
)

// versionInfo holds the fields reported by the toolsmith_version tool.
type versionInfo struct {
	Version  string `json:"version"`
	Build    string `json:"build"`
	Commit   string `json:"commit"`
	Upstream string `json:"upstream,omitempty"`
	Tools    int    `json:"tools"`
}

// VersionTool returns the mcp.Tool definition for the toolsmith_version tool.
// The name is prefixed so it cannot collide with a mined tool; APIs commonly
// expose a /version endpoint that mines to get_version.
func VersionTool() mcp.Tool {
	return mcp.NewTool("toolsmith_version",
		mcp.WithDescription("Get toolsmith server version and registered tool count. Use this to verify connectivity."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// versionHandler reports build information, the upstream base URL, and the
// number of registered mined tools.
func (s *Server) versionHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		count := len(s.registered)
		s.mu.Unlock()

		info := versionInfo{
			Version: common.GetVersion(),
			Build:   common.GetBuild(),
			Commit:  common.GetGitCommit(),
			Tools:   count,
		}
		if s.dispatcher != nil {
			info.Upstream = s.dispatcher.BaseURL()
		}

		out, err := json.Marshal(info)
		if err != nil {
			return errorResult("failed to marshal version info"), nil
		}
		return textResult(string(out)), nil
	}
}
