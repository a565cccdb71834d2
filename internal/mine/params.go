package mine

import "github.com/bobmcallan/toolsmith/internal/models"

// jsonTypes maps source schema types onto JSON-schema types. Anything
// unrecognized projects to string so a single odd type never aborts a run.
var jsonTypes = map[string]string{
	"integer": "integer",
	"int":     "integer",
	"number":  "number",
	"float":   "number",
	"boolean": "boolean",
	"bool":    "boolean",
	"array":   "array",
	"object":  "object",
}

// ConvertParams projects endpoint parameters into tool params,
// de-duplicating by name. First occurrence wins.
func ConvertParams(ep models.Endpoint) []models.ToolParam {
	seen := make(map[string]struct{}, len(ep.Parameters))
	params := make([]models.ToolParam, 0, len(ep.Parameters))
	for _, p := range ep.Parameters {
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}

		jsonType, ok := jsonTypes[p.SchemaType]
		if !ok {
			jsonType = "string"
		}
		desc := p.Description
		if desc == "" {
			desc = p.Location + " parameter"
		}
		params = append(params, models.ToolParam{
			Name:        p.Name,
			Description: desc,
			Type:        jsonType,
			Required:    p.Required,
			Enum:        p.Enum,
			Default:     p.Default,
		})
	}
	return params
}

// InferSafety is the stage-1 classification: by HTTP method only. The
// policy stage refines this with keyword analysis.
func InferSafety(ep models.Endpoint) models.SafetyLevel {
	switch ep.Method {
	case models.MethodDelete:
		return models.SafetyDestructive
	case models.MethodPost, models.MethodPut, models.MethodPatch:
		return models.SafetyWrite
	}
	return models.SafetyRead
}
