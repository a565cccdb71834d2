// Package ingest parses OpenAPI and Swagger documents into the
// normalized APISpec model the mining engine consumes. Ingestion is the
// fallible edge of the pipeline: unreadable or unparseable sources
// return errors, while structural oddities inside a parseable document
// fail open downstream.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

// Loader reads API descriptions from files or URLs.
type Loader struct {
	timeout time.Duration
	logger  *common.Logger
}

// NewLoader creates a loader. The timeout applies to URL fetches only.
func NewLoader(timeout time.Duration, logger *common.Logger) *Loader {
	return &Loader{timeout: timeout, logger: logger}
}

// Load reads an API description from a file path or an http(s) URL and
// normalizes it into an APISpec.
func (l *Loader) Load(ctx context.Context, source string) (*models.APISpec, error) {
	started := time.Now()
	l.logger.Info().Str("stage", "ingest").Str("source", source).Msg("Ingesting API description")

	var data []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetchURL(ctx, source, l.timeout)
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("failed to read spec file %s: %w", source, err)
		}
	}
	if err != nil {
		return nil, err
	}

	spec, err := Parse(data)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("title", spec.Title).
		Str("version", spec.Version).
		Int("endpoints", len(spec.Endpoints)).
		Int("tags", len(spec.Tags)).
		Dur("elapsed", time.Since(started)).
		Msg("Ingest complete")
	return spec, nil
}

// Parse normalizes raw OpenAPI 3 or Swagger 2 bytes, JSON or YAML.
func Parse(data []byte) (*models.APISpec, error) {
	if isSwagger2(data) {
		doc, err := parseSwagger2(data)
		if err != nil {
			return nil, err
		}
		return normalize(doc), nil
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	return normalize(doc), nil
}

// versionProbe sniffs the document generation without a full parse.
type versionProbe struct {
	Swagger string `json:"swagger" yaml:"swagger"`
	OpenAPI string `json:"openapi" yaml:"openapi"`
}

func isSwagger2(data []byte) bool {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return false
		}
	}
	return strings.HasPrefix(probe.Swagger, "2")
}

// parseSwagger2 upgrades a Swagger 2 document to OpenAPI 3. YAML input
// is bridged through a generic decode because the v2 model only
// unmarshals JSON.
func parseSwagger2(data []byte) (*openapi3.T, error) {
	jsonData := data
	if !json.Valid(data) {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse Swagger YAML: %w", err)
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode Swagger YAML: %w", err)
		}
		jsonData = converted
	}

	var v2 openapi2.T
	if err := json.Unmarshal(jsonData, &v2); err != nil {
		return nil, fmt.Errorf("failed to parse Swagger document: %w", err)
	}
	doc, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert Swagger document: %w", err)
	}
	return doc, nil
}
