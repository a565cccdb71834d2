package mcp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/toolsmith/internal/models"
)

// placeholderRE matches {param} path placeholders.
var placeholderRE = regexp.MustCompile(`\{([^}]+)\}`)

// Handler returns a generic ToolHandlerFunc that forwards a tool call to
// the endpoint behind def. Arguments named by a path placeholder are
// substituted into the path; the rest go to the query string for reads and
// deletes, or the JSON body for writes.
func Handler(d *Dispatcher, def models.ToolDefinition, requireConfirm bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if requireConfirm && def.Safety != models.SafetyRead {
			if !request.GetBool(ConfirmParam, false) {
				return errorResult(fmt.Sprintf("Error: %s is a %s operation. Pass confirm=true to proceed.", def.Name, def.Safety)), nil
			}
		}

		args := collectArgs(request, def)

		for _, p := range def.Params {
			if p.Required {
				if _, ok := args[p.Name]; !ok {
					return errorResult(fmt.Sprintf("Error: %s parameter is required", p.Name)), nil
				}
			}
		}

		if len(def.Endpoints) == 0 {
			return errorResult(fmt.Sprintf("Error: tool %s has no endpoint", def.Name)), nil
		}
		ep := selectEndpoint(def, args)

		path, used, err := expandPath(ep.Path, args)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		var respBody []byte
		switch strings.ToUpper(ep.Method) {
		case http.MethodGet:
			respBody, err = d.get(ctx, path, queryArgs(args, used))
		case http.MethodHead:
			respBody, err = d.head(ctx, path, queryArgs(args, used))
		case http.MethodOptions:
			respBody, err = d.options(ctx, path, queryArgs(args, used))
		case http.MethodDelete:
			respBody, err = d.del(ctx, path, queryArgs(args, used))
		case http.MethodPost:
			respBody, err = d.post(ctx, path, bodyOrNil(bodyArgs(args, used)))
		case http.MethodPut:
			respBody, err = d.put(ctx, path, bodyOrNil(bodyArgs(args, used)))
		case http.MethodPatch:
			respBody, err = d.patch(ctx, path, bodyOrNil(bodyArgs(args, used)))
		default:
			return errorResult(fmt.Sprintf("Error: unsupported method %s", ep.Method)), nil
		}

		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(string(respBody)), nil
	}
}

// collectArgs extracts the supplied argument values for the tool's
// declared parameters. Numeric, boolean, array and object values are read
// from the raw arguments so they keep their JSON types for body routing.
// The confirm parameter is never forwarded upstream.
func collectArgs(request mcp.CallToolRequest, def models.ToolDefinition) map[string]interface{} {
	args := make(map[string]interface{}, len(def.Params))
	raw := request.GetArguments()
	for _, p := range def.Params {
		if p.Name == ConfirmParam {
			continue
		}
		switch p.Type {
		case "integer", "number", "boolean", "array", "object":
			if raw != nil {
				if v, ok := raw[p.Name]; ok && v != nil {
					args[p.Name] = v
				}
			}
		default:
			if v := request.GetString(p.Name, ""); v != "" {
				args[p.Name] = v
			}
		}
	}
	return args
}

// selectEndpoint picks the endpoint to dispatch to. Merged search tools
// carry several; the first whose path placeholders are all satisfied by
// the supplied arguments wins, falling back to the first endpoint.
func selectEndpoint(def models.ToolDefinition, args map[string]interface{}) models.Endpoint {
	if len(def.Endpoints) == 1 {
		return def.Endpoints[0]
	}
	for _, ep := range def.Endpoints {
		if placeholdersSatisfied(ep.Path, args) {
			return ep
		}
	}
	return def.Endpoints[0]
}

// placeholdersSatisfied reports whether every {param} in path has a
// supplied argument.
func placeholdersSatisfied(path string, args map[string]interface{}) bool {
	for _, m := range placeholderRE.FindAllStringSubmatch(path, -1) {
		if _, ok := args[m[1]]; !ok {
			return false
		}
	}
	return true
}

// expandPath substitutes {param} placeholders with path-escaped argument
// values and reports which argument names were consumed.
func expandPath(template string, args map[string]interface{}) (string, map[string]bool, error) {
	used := make(map[string]bool)
	var missing string
	path := placeholderRE.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := args[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		used[name] = true
		return url.PathEscape(fmt.Sprint(v))
	})
	if missing != "" {
		return "", nil, fmt.Errorf("%s parameter is required", missing)
	}
	return path, used, nil
}

// queryArgs converts the unconsumed arguments into query parameters.
// Array values are comma-joined, matching the OpenAPI form style.
func queryArgs(args map[string]interface{}, used map[string]bool) url.Values {
	query := url.Values{}
	for name, v := range args {
		if used[name] {
			continue
		}
		if items, ok := v.([]interface{}); ok {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				parts = append(parts, fmt.Sprint(item))
			}
			query.Set(name, strings.Join(parts, ","))
			continue
		}
		if s := fmt.Sprint(v); s != "" {
			query.Set(name, s)
		}
	}
	return query
}

// bodyArgs collects the unconsumed arguments into a JSON body map.
func bodyArgs(args map[string]interface{}, used map[string]bool) map[string]interface{} {
	body := make(map[string]interface{}, len(args))
	for name, v := range args {
		if used[name] {
			continue
		}
		body[name] = v
	}
	return body
}

// bodyOrNil returns nil for an empty body map so methods without body
// params do not send an empty JSON object.
func bodyOrNil(body map[string]interface{}) interface{} {
	if len(body) == 0 {
		return nil
	}
	return body
}

// textResult creates a successful MCP result carrying the response text.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
