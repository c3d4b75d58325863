package handlers

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
)

// LoadTemplates parses the layout, page and component templates under templatesPath
func LoadTemplates(templatesPath string) (*template.Template, error) {
	baseTemplate := filepath.Join(templatesPath, "base.tmpl")

	patterns := []string{
		filepath.Join(templatesPath, "quiz/*.tmpl"),
		filepath.Join(templatesPath, "components/*.tmpl"),
	}

	files := []string{baseTemplate}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	funcMap := template.FuncMap{
		"join": strings.Join,
		"add": func(a, b int) int {
			return a + b
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}
