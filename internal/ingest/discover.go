package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// specFilenames are the well-known API description names, matched
// case-insensitively during discovery.
var specFilenames = map[string]struct{}{
	"swagger.json": {},
	"swagger.yaml": {},
	"swagger.yml":  {},
	"openapi.json": {},
	"openapi.yaml": {},
	"openapi.yml":  {},
}

// Discover walks a directory tree for well-known API description
// filenames and returns the matches sorted by path.
func Discover(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := specFilenames[strings.ToLower(d.Name())]; ok {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(found)
	return found, nil
}
