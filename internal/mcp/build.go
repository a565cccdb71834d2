package mcp

import (
	"strings"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/toolsmith/internal/models"
)

// ConfirmParam is the boolean parameter added to write and destructive
// tools when the policy requires explicit confirmation.
const ConfirmParam = "confirm"

// BuildTool converts a mined tool definition into an mcp.Tool with typed
// parameters and safety annotations. When requireConfirm is set, write and
// destructive tools gain a required confirm boolean that dispatch checks
// before forwarding the call.
func BuildTool(def models.ToolDefinition, requireConfirm bool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(def.Description),
		mcp.WithTitleAnnotation(titleFor(def.Name)),
		mcp.WithReadOnlyHintAnnotation(def.Safety == models.SafetyRead),
		mcp.WithDestructiveHintAnnotation(def.Safety == models.SafetyDestructive),
		mcp.WithIdempotentHintAnnotation(idempotentFor(def)),
		mcp.WithOpenWorldHintAnnotation(true),
	}

	for _, p := range def.Params {
		opts = append(opts, buildParamOption(p))
	}

	if requireConfirm && def.Safety != models.SafetyRead {
		opts = append(opts, mcp.WithBoolean(ConfirmParam,
			mcp.Required(),
			mcp.Description("Set to true to confirm this operation. It may modify or delete data."),
		))
	}

	return mcp.NewTool(def.Name, opts...)
}

// buildParamOption maps a tool parameter to the appropriate mcp-go tool option.
func buildParamOption(p models.ToolParam) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}

	switch p.Type {
	case "integer", "number":
		return mcp.WithNumber(p.Name, opts...)
	case "boolean":
		return mcp.WithBoolean(p.Name, opts...)
	case "array":
		opts = append([]mcp.PropertyOption{mcp.WithStringItems()}, opts...)
		return mcp.WithArray(p.Name, opts...)
	default:
		// string, object, or unknown all surface as string
		if len(p.Enum) > 0 {
			opts = append(opts, mcp.Enum(p.Enum...))
		}
		if s, ok := p.Default.(string); ok && s != "" {
			opts = append(opts, mcp.DefaultString(s))
		}
		return mcp.WithString(p.Name, opts...)
	}
}

// titleFor humanizes a tool name for the annotation title, e.g.
// "search_pets" becomes "Search pets".
func titleFor(name string) string {
	title := strings.ReplaceAll(name, "_", " ")
	runes := []rune(title)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// idempotentFor reports whether repeating the tool call has no additional
// effect, derived from the HTTP method of its first endpoint. Merged search
// tools are GET-only and therefore idempotent.
func idempotentFor(def models.ToolDefinition) bool {
	if len(def.Endpoints) == 0 {
		return def.Safety == models.SafetyRead
	}
	switch strings.ToUpper(def.Endpoints[0].Method) {
	case "GET", "HEAD", "OPTIONS", "PUT", "DELETE":
		return true
	}
	return false
}
