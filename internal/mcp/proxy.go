package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/toolsmith/internal/cache"
	"github.com/bobmcallan/toolsmith/internal/common"
)

// maxResponseSize caps upstream response bodies to prevent OOM from
// unexpectedly large responses.
const maxResponseSize = 50 << 20 // 50MB

// Dispatcher forwards MCP tool calls to the upstream REST API. GET
// responses are cached so repeated read calls do not hammer the upstream.
type Dispatcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	cache      *cache.ResponseCache
}

// NewDispatcher creates a dispatcher targeting the given upstream base URL.
func NewDispatcher(baseURL string, timeout time.Duration, logger *common.Logger, responseCache *cache.ResponseCache) *Dispatcher {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Dispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		cache:      responseCache,
	}
}

// BaseURL returns the configured upstream base URL.
func (d *Dispatcher) BaseURL() string {
	return d.baseURL
}

// get performs a GET request against the upstream, serving from the
// response cache when a fresh entry exists.
func (d *Dispatcher) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	key := cache.MakeKey(http.MethodGet, path, query)
	if cached, ok := d.cache.Get(key); ok {
		d.logger.Debug().Str("method", "GET").Str("path", path).Msg("upstream cache hit")
		return cached.Body, nil
	}

	status, body, err := d.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	d.cache.Set(key, &cache.CachedResponse{StatusCode: status, Body: body})
	return body, nil
}

// head performs a HEAD request against the upstream.
func (d *Dispatcher) head(ctx context.Context, path string, query url.Values) ([]byte, error) {
	_, body, err := d.do(ctx, http.MethodHead, path, query, nil)
	return body, err
}

// options performs an OPTIONS request against the upstream.
func (d *Dispatcher) options(ctx context.Context, path string, query url.Values) ([]byte, error) {
	_, body, err := d.do(ctx, http.MethodOptions, path, query, nil)
	return body, err
}

// del performs a DELETE request against the upstream and drops cached
// reads under the same resource so stale responses are not served.
func (d *Dispatcher) del(ctx context.Context, path string, query url.Values) ([]byte, error) {
	_, body, err := d.do(ctx, http.MethodDelete, path, query, nil)
	if err != nil {
		return nil, err
	}
	d.cache.InvalidatePrefix(resourceRoot(path))
	return body, nil
}

// post performs a POST request with a JSON body against the upstream.
func (d *Dispatcher) post(ctx context.Context, path string, data interface{}) ([]byte, error) {
	return d.doJSON(ctx, http.MethodPost, path, data)
}

// put performs a PUT request with a JSON body against the upstream.
func (d *Dispatcher) put(ctx context.Context, path string, data interface{}) ([]byte, error) {
	return d.doJSON(ctx, http.MethodPut, path, data)
}

// patch performs a PATCH request with a JSON body against the upstream.
func (d *Dispatcher) patch(ctx context.Context, path string, data interface{}) ([]byte, error) {
	return d.doJSON(ctx, http.MethodPatch, path, data)
}

// doJSON performs a write request and drops cached reads under the same
// resource on success.
func (d *Dispatcher) doJSON(ctx context.Context, method, path string, data interface{}) ([]byte, error) {
	_, body, err := d.do(ctx, method, path, nil, data)
	if err != nil {
		return nil, err
	}
	d.cache.InvalidatePrefix(resourceRoot(path))
	return body, nil
}

// do performs one upstream HTTP request. Each request carries a generated
// request ID, forwarded as X-Request-ID and used as the log correlation ID.
func (d *Dispatcher) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (int, []byte, error) {
	requestID := uuid.New().String()
	log := d.logger.WithCorrelationId(requestID)

	target := d.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Request-ID", requestID)
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("method", method).Str("path", path).Msg("upstream request")

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Error().Str("method", method).Str("path", path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("upstream request failed")
		return 0, nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("upstream response")

	if resp.StatusCode >= 400 {
		return resp.StatusCode, nil, parseErrorResponse(resp.StatusCode, body)
	}

	return resp.StatusCode, body, nil
}

// resourceRoot returns the first path segment, e.g. "/pets" for
// "/pets/42/photos". Cached reads under this root are invalidated after
// a write so list endpoints reflect the change.
func resourceRoot(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

// parseErrorResponse extracts a meaningful error message from an HTTP error response.
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("%s", errResp.Error)
	}
	return fmt.Errorf("upstream returned %d: %s", statusCode, string(body))
}
