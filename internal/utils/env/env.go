package env

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"strings"

	"github.com/slok/invk/internal/model"
)

var envKeyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSpecs parses `KEY=VALUE` and `KEY` specs, the latter take the value
// from the current process environment. Later specs override earlier ones.
func ParseSpecs(specs []string) (map[string]string, error) {
	return parseSpecs(specs, os.LookupEnv)
}

func parseSpecs(specs []string, lookup func(string) (string, bool)) (map[string]string, error) {
	env := make(map[string]string, len(specs))

	for _, spec := range specs {
		if spec == "" {
			return nil, fmt.Errorf("environment variable spec cannot be empty: %w", model.ErrNotValid)
		}

		key, value, hasValue := strings.Cut(spec, "=")
		if !envKeyRegexp.MatchString(key) {
			return nil, fmt.Errorf("invalid environment variable key %q: %w", key, model.ErrNotValid)
		}

		if !hasValue {
			v, ok := lookup(key)
			if !ok {
				return nil, fmt.Errorf("environment variable %q is not set: %w", key, model.ErrNotFound)
			}
			value = v
		}

		env[key] = value
	}

	return env, nil
}

// MergeMaps returns a new map with the override values on top of base.
func MergeMaps(base map[string]string, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	maps.Copy(merged, base)
	maps.Copy(merged, override)

	return merged
}
