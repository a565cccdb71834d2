package mine

import (
	"strings"

	"github.com/bobmcallan/toolsmith/internal/models"
)

// crudVerbs maps HTTP methods onto tool-name verbs.
var crudVerbs = map[string]string{
	models.MethodGet:     "get",
	models.MethodPost:    "create",
	models.MethodPut:     "update",
	models.MethodPatch:   "update",
	models.MethodDelete:  "delete",
	models.MethodHead:    "head",
	models.MethodOptions: "options",
}

// ToolNameFromEndpoint derives a short, stable tool name. An explicit
// operation id always wins so names survive regeneration; otherwise the
// name is <verb>_<resource>.
func ToolNameFromEndpoint(ep models.Endpoint) string {
	if ep.OperationID != "" {
		return Slugify(ep.OperationID)
	}
	verb, ok := crudVerbs[ep.Method]
	if !ok {
		verb = strings.ToLower(ep.Method)
	}
	// A collection GET reads better as list_pets than get_pets
	if verb == "get" && !placeholderRE.MatchString(ep.Path) {
		verb = "list"
	}
	return verb + "_" + ResourceFromPath(ep.Path)
}

// toolDescription builds a human-readable description for a standalone tool.
func toolDescription(ep models.Endpoint) string {
	var desc string
	switch {
	case ep.Summary != "":
		desc = ep.Summary
	case ep.Description != "":
		desc = firstLine(ep.Description, 200)
	default:
		desc = ep.Method + " " + ep.Path
	}
	if ep.Deprecated {
		desc += " [DEPRECATED]"
	}
	return desc
}

// firstLine returns the first line of s capped at max runes.
func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
