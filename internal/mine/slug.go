package mine

import (
	"regexp"
	"strings"
)

var (
	// placeholderRE finds {param} placeholders anywhere in a path.
	placeholderRE = regexp.MustCompile(`\{[^}]+\}`)
	// placeholderSegRE matches a path segment that is entirely a placeholder.
	placeholderSegRE = regexp.MustCompile(`^\{[^}]+\}$`)
	// versionSegRE matches version segments like v1, v2. Case-sensitive:
	// V1 is treated as a real resource name.
	versionSegRE = regexp.MustCompile(`^v\d+$`)
	// slugRE collapses runs of anything outside [a-z0-9].
	slugRE = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify turns arbitrary text into a snake_case identifier.
func Slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = slugRE.ReplaceAllString(text, "_")
	return strings.Trim(text, "_")
}

// ResourceFromPath extracts the main resource name from a URL path.
// Placeholder and version segments are dropped and at most the last two
// remaining segments are kept:
//
//	/pets/{petId}/toys  →  pets_toys
//	/v1/issues          →  issues
func ResourceFromPath(path string) string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s == "" || placeholderSegRE.MatchString(s) || versionSegRE.MatchString(s) {
			continue
		}
		segments = append(segments, s)
	}
	if len(segments) == 0 {
		return "root"
	}
	if len(segments) > 2 {
		segments = segments[len(segments)-2:]
	}
	slugs := make([]string, len(segments))
	for i, s := range segments {
		slugs[i] = Slugify(s)
	}
	return strings.Join(slugs, "_")
}
