package models

// HTTP methods recognized by the mining engine. Anything else is carried
// through as-is and treated as a read operation.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
)

// Parameter locations.
const (
	LocationQuery  = "query"
	LocationPath   = "path"
	LocationHeader = "header"
	LocationCookie = "cookie"
	LocationBody   = "body"
)

// APISpec is the normalized description of one remote API surface.
// Built once by ingestion and read-only afterwards.
type APISpec struct {
	Title       string     `json:"title"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	BaseURL     string     `json:"base_url,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Endpoints   []Endpoint `json:"endpoints"`
}

// Endpoint is one HTTP method + path operation from the source API.
type Endpoint struct {
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	OperationID string      `json:"operation_id,omitempty"`
	Summary     string      `json:"summary,omitempty"`
	Description string      `json:"description,omitempty"`
	Deprecated  bool        `json:"deprecated,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
}

// Parameter is one source parameter before projection.
type Parameter struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	SchemaType  string   `json:"schema_type,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
	Description string   `json:"description,omitempty"`
}
