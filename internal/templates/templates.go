// Package templates provides embedded config templates for
// planetsync init.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
)

//go:embed *.toml *.yaml
var templatesFS embed.FS

// Template is a named config template.
type Template struct {
	Name        string
	Description string
	Filename    string
	Content     []byte
}

var templateDescriptions = map[string]string{
	"minimal": "API key and endpoint only, defaults for everything else",
	"daemon":  "Daemon mode with metrics enabled",
	"full":    "Every option with its default, commented",
}

// List returns all available template names sorted alphabetically.
func List() []string {
	entries, err := templatesFS.ReadDir(".")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		name = strings.TrimSuffix(name, ".toml")
		name = strings.TrimSuffix(name, ".yaml")
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Get returns a template by name. Templates keep their source format,
// so the caller should preserve the returned filename's extension.
func Get(name string) (*Template, error) {
	for _, ext := range []string{".toml", ".yaml"} {
		filename := name + ext
		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				continue
			}
			return nil, fmt.Errorf("failed to read template %q: %w", name, err)
		}
		return &Template{
			Name:        name,
			Description: GetDescription(name),
			Filename:    "planetsync" + ext,
			Content:     content,
		}, nil
	}
	return nil, fmt.Errorf("template %q not found, available: %s", name, strings.Join(List(), ", "))
}

// GetDescription returns the description for a template.
func GetDescription(name string) string {
	if desc, ok := templateDescriptions[name]; ok {
		return desc
	}
	return "Custom template"
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} patterns in content.
func ExpandEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := envVarPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := os.Getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// GetExpanded returns a template with environment variables expanded.
func GetExpanded(name string) (*Template, error) {
	tmpl, err := Get(name)
	if err != nil {
		return nil, err
	}

	tmpl.Content = ExpandEnvVars(tmpl.Content)
	return tmpl, nil
}
