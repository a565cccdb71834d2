package ingest

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/bobmcallan/toolsmith/internal/models"
)

// canonicalMethods fixes the emission order of operations within one
// path. Combined with sorted path keys this makes ingestion
// deterministic over the unordered path map.
var canonicalMethods = []string{
	models.MethodGet,
	models.MethodPost,
	models.MethodPut,
	models.MethodPatch,
	models.MethodDelete,
	models.MethodHead,
	models.MethodOptions,
}

func normalize(doc *openapi3.T) *models.APISpec {
	spec := &models.APISpec{}
	if doc.Info != nil {
		spec.Title = doc.Info.Title
		spec.Version = doc.Info.Version
		spec.Description = doc.Info.Description
	}
	if len(doc.Servers) > 0 {
		spec.BaseURL = doc.Servers[0].URL
	}
	for _, tag := range doc.Tags {
		if tag != nil {
			spec.Tags = append(spec.Tags, tag.Name)
		}
	}

	if doc.Paths == nil {
		return spec
	}
	pathMap := doc.Paths.Map()
	paths := make([]string, 0, len(pathMap))
	for path := range pathMap {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := pathMap[path]
		if item == nil {
			continue
		}
		for _, method := range canonicalMethods {
			op := operationFor(item, method)
			if op == nil {
				continue
			}
			spec.Endpoints = append(spec.Endpoints, buildEndpoint(method, path, item, op))
		}
	}
	return spec
}

func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case models.MethodGet:
		return item.Get
	case models.MethodPost:
		return item.Post
	case models.MethodPut:
		return item.Put
	case models.MethodPatch:
		return item.Patch
	case models.MethodDelete:
		return item.Delete
	case models.MethodHead:
		return item.Head
	case models.MethodOptions:
		return item.Options
	}
	return nil
}

func buildEndpoint(method, path string, item *openapi3.PathItem, op *openapi3.Operation) models.Endpoint {
	ep := models.Endpoint{
		Method:      method,
		Path:        path,
		OperationID: op.OperationID,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
		Tags:        op.Tags,
	}
	// Path-item parameters first: they win name clashes downstream
	// because parameter dedup keeps the first occurrence
	for _, ref := range item.Parameters {
		addParameter(&ep, ref)
	}
	for _, ref := range op.Parameters {
		addParameter(&ep, ref)
	}
	addBodyParams(&ep, op.RequestBody)
	return ep
}

func addParameter(ep *models.Endpoint, ref *openapi3.ParameterRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	p := ref.Value
	param := models.Parameter{
		Name:        p.Name,
		Location:    p.In,
		Required:    p.Required,
		Description: p.Description,
	}
	if p.Schema != nil && p.Schema.Value != nil {
		param.SchemaType = schemaType(p.Schema.Value)
		param.Enum = enumStrings(p.Schema.Value.Enum)
		param.Default = p.Schema.Value.Default
	}
	ep.Parameters = append(ep.Parameters, param)
}

// addBodyParams flattens a JSON request body one level: each top-level
// property becomes a body parameter. Nested structure stays opaque.
func addBodyParams(ep *models.Endpoint, ref *openapi3.RequestBodyRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	media := ref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return
	}
	schema := media.Schema.Value

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		param := models.Parameter{
			Name:     name,
			Location: models.LocationBody,
			Required: required[name],
		}
		if propRef := schema.Properties[name]; propRef != nil && propRef.Value != nil {
			param.SchemaType = schemaType(propRef.Value)
			param.Description = propRef.Value.Description
			param.Enum = enumStrings(propRef.Value.Enum)
			param.Default = propRef.Value.Default
		}
		ep.Parameters = append(ep.Parameters, param)
	}
}

// schemaType returns the first declared type, or empty when the schema
// declares none. The projector maps empty to string.
func schemaType(s *openapi3.Schema) string {
	if s.Type != nil {
		if types := s.Type.Slice(); len(types) > 0 {
			return types[0]
		}
	}
	return ""
}

func enumStrings(enum []any) []string {
	if len(enum) == 0 {
		return nil
	}
	out := make([]string, 0, len(enum))
	for _, v := range enum {
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}
