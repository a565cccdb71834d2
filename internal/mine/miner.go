// Package mine implements capability mining: the deterministic
// transformation of a normalized API description into a minimal,
// uniquely-named, safety-annotated set of tool definitions.
//
// Strategy:
//  1. Group endpoints by first tag, or by path-derived resource.
//  2. Collapse read-heavy groups into a single search tool instead of
//     one wrapper per filter endpoint.
//  3. Give every side-effecting endpoint its own tool so the safety
//     layer sees each write and delete individually.
//  4. Generate clean, model-friendly names and descriptions.
package mine

import (
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

// Result is the output of one mining run. Tools are sorted by name.
// Dropped records tools lost to name collisions, so losses are visible
// to reports instead of silently swallowed.
type Result struct {
	Tools   []models.ToolDefinition
	Dropped []models.DroppedTool
	Groups  int
}

// GroupKey buckets an endpoint by its first tag, falling back to the
// path-derived resource so untagged endpoints still land in a
// deterministic bucket.
func GroupKey(ep models.Endpoint) string {
	if len(ep.Tags) > 0 {
		return Slugify(ep.Tags[0])
	}
	return ResourceFromPath(ep.Path)
}

// mergeSearchTool collapses a set of GET endpoints into one search tool
// whose params are the union of all members' params, first occurrence
// per name winning.
func mergeSearchTool(group string, eps []models.Endpoint) models.ToolDefinition {
	seen := make(map[string]struct{})
	params := make([]models.ToolParam, 0)
	for _, ep := range eps {
		for _, p := range ConvertParams(ep) {
			if _, dup := seen[p.Name]; dup {
				continue
			}
			seen[p.Name] = struct{}{}
			params = append(params, p)
		}
	}
	return models.ToolDefinition{
		Name:        "search_" + group,
		Description: "Search or list " + strings.ReplaceAll(group, "_", " ") + " with flexible filtering.",
		Safety:      models.SafetyRead,
		Params:      params,
		Endpoints:   eps,
		Tags:        []string{group},
	}
}

// Mine converts an APISpec into tool definitions. Deterministic for
// identical input, and it never fails: name collisions surface in
// Result.Dropped rather than aborting the run.
func Mine(spec *models.APISpec, logger *common.Logger) *Result {
	started := time.Now()
	logger.Info().Str("stage", "mine").Str("api", spec.Title).Msg("Capability mining started")

	// Bucket endpoints, preserving first-seen group order
	groups := make(map[string][]models.Endpoint)
	var order []string
	for _, ep := range spec.Endpoints {
		key := GroupKey(ep)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ep)
	}

	logger.Info().
		Int("endpoints", len(spec.Endpoints)).
		Int("groups", len(order)).
		Strs("keys", order).
		Msg("Grouped endpoints into resource groups")

	res := &Result{Groups: len(order)}
	seen := make(map[string]struct{})

	for _, group := range order {
		var reads, writes []models.Endpoint
		for _, ep := range groups[group] {
			if ep.Method == models.MethodGet {
				reads = append(reads, ep)
			} else {
				writes = append(writes, ep)
			}
		}

		if len(reads) >= 3 {
			// Read-heavy group: one search tool instead of N wrappers.
			// Merged tools get no suffix disambiguation; a collision
			// drops the merged tool outright.
			merged := mergeSearchTool(group, reads)
			if _, taken := seen[merged.Name]; taken {
				res.Dropped = append(res.Dropped, models.DroppedTool{
					Name:   merged.Name,
					Reason: "name collision",
				})
			} else {
				res.Tools = append(res.Tools, merged)
				seen[merged.Name] = struct{}{}
			}
		} else {
			for _, ep := range reads {
				res.addStandalone(ep, group, seen)
			}
		}

		// Side-effecting endpoints always get their own tool,
		// never merged, so the safety layer sees each one.
		for _, ep := range writes {
			res.addStandalone(ep, group, seen)
		}
	}

	sort.Slice(res.Tools, func(i, j int) bool {
		return res.Tools[i].Name < res.Tools[j].Name
	})

	names := make([]string, len(res.Tools))
	for i, t := range res.Tools {
		names[i] = t.Name
	}
	logger.Info().
		Int("tools", len(res.Tools)).
		Int("dropped", len(res.Dropped)).
		Strs("names", names).
		Dur("elapsed", time.Since(started)).
		Msg("Capability mining complete")

	return res
}

// addStandalone emits one tool for one endpoint. On a name collision the
// slugified final path segment is appended; if the suffixed name still
// collides the tool is dropped and recorded.
func (r *Result) addStandalone(ep models.Endpoint, group string, seen map[string]struct{}) {
	name := ToolNameFromEndpoint(ep)
	if _, taken := seen[name]; taken {
		segments := strings.Split(ep.Path, "/")
		name = name + "_" + Slugify(segments[len(segments)-1])
	}
	if _, taken := seen[name]; taken {
		r.Dropped = append(r.Dropped, models.DroppedTool{
			Name:   name,
			Method: ep.Method,
			Path:   ep.Path,
			Reason: "name collision",
		})
		return
	}

	tags := ep.Tags
	if len(tags) == 0 {
		tags = []string{group}
	}
	r.Tools = append(r.Tools, models.ToolDefinition{
		Name:        name,
		Description: toolDescription(ep),
		Safety:      InferSafety(ep),
		Params:      ConvertParams(ep),
		Endpoints:   []models.Endpoint{ep},
		Tags:        tags,
	})
	seen[name] = struct{}{}
}
