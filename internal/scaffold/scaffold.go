package scaffold

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"
)

//go:embed all:templates
var templatesFS embed.FS

// Template set names.
const (
	SetTypeScript = "project-ts"
	SetJavaScript = "project-js"
)

// Database is the database section rendered into configuration.
type Database struct {
	Client           string
	Host             string
	Port             string
	Name             string
	Username         string
	Password         string
	Filename         string
	SSL              bool
	UseNullAsDefault bool
}

// Data holds the template variables available to project templates.
type Data struct {
	Name             string
	FrameworkVersion string
	PackageScope     string
	UUID             string
	Template         string
	Starter          string
	PackageManager   string
	TypeScript       bool
	Dependencies     map[string]string
	DevDependencies  map[string]string
	Database         Database
	// Secrets maps environment variable names to generated values.
	Secrets map[string]string
	Year    int
}

// Result holds the outcome of a generation.
type Result struct {
	OutputDir string
	Files     []string
}

var funcs = template.FuncMap{
	"toJSON": func(v any) (string, error) {
		if m, ok := v.(map[string]string); ok && m == nil {
			return "{}", nil
		}
		b, err := json.MarshalIndent(v, "  ", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
	"quote": func(s string) string {
		b, _ := json.Marshal(s)
		return string(b)
	},
	"sortedKeys": func(m map[string]string) []string {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return keys
	},
}

// SetFor returns the template set for a TypeScript or JavaScript project.
func SetFor(typescript bool) string {
	if typescript {
		return SetTypeScript
	}
	return SetJavaScript
}

// Sets lists the embedded template sets.
func Sets() ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("listing template sets: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Generate renders the template set into outputDir, which must be absent
// or empty. Files ending in .tmpl are executed as text/template with data
// and written without the suffix; other files are copied as is.
func Generate(set string, data *Data, outputDir string) (*Result, error) {
	root := path.Join("templates", set)
	if _, err := fs.Stat(templatesFS, root); err != nil {
		return nil, fmt.Errorf("template set %q not found: %w", set, err)
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	existing, err := os.ReadDir(outputDir)
	if err == nil && len(existing) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{OutputDir: outputDir}
	err = fs.WalkDir(templatesFS, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if rel == "" {
			return nil
		}
		target := filepath.Join(outputDir, filepath.FromSlash(rel))

		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", target, err)
			}
			return nil
		}

		content, err := fs.ReadFile(templatesFS, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}

		if strings.HasSuffix(rel, ".tmpl") {
			rel = strings.TrimSuffix(rel, ".tmpl")
			target = strings.TrimSuffix(target, ".tmpl")

			tmpl, err := template.New(d.Name()).Funcs(funcs).Parse(string(content))
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", p, err)
			}
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, data); err != nil {
				return fmt.Errorf("executing template %s: %w", p, err)
			}
			content = buf.Bytes()
		}

		if err := os.WriteFile(target, content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		result.Files = append(result.Files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
