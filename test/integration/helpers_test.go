//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	ConfigDir  string // QUILL_CONFIG_DIR, holds config.yaml and cloud.json
	PluginsDir string // one subdirectory per plugin
	ProjectDir string // parent of generated projects
}

// setupTestEnv creates isolated temp directories and points the config
// directory at one of them. The env var is restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ConfigDir:  t.TempDir(),
		PluginsDir: t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	t.Setenv("QUILL_CONFIG_DIR", env.ConfigDir)
	return env
}

// setupPlugins writes a blog plugin declaring a content type and a seo
// plugin extending the blog's settings section. Returns their directories
// in registration order.
func setupPlugins(t *testing.T, pluginsDir string) []string {
	t.Helper()

	blog := filepath.Join(pluginsDir, "blog")
	writeManifest(t, blog, `name: blog
version: 1.0.0
requires: ">=5.0.0 <6.0.0"
menu:
  - to: /plugins/blog
    icon: feather
    label:
      id: blog.plugin.name
      defaultMessage: Blog
    view: views/index.html
settings:
  - section:
      id: blog
      label:
        id: blog.settings.section
        defaultMessage: Blog
    links:
      - id: blog-general
        to: /settings/blog/general
        label:
          id: blog.settings.general
          defaultMessage: General
        view: views/general.html
contentTypes:
  - uid: api::article.article
    kind: collectionType
    displayName: Article
    draftAndPublish: true
    localized: true
    attributes:
      title:
        type: string
        required: true
      category:
        type: enumeration
        enum: [news, tutorial]
        default: news
translations:
  fr:
    blog.plugin.name: Journal
`)
	writeFile(t, filepath.Join(blog, "views", "index.html"), "<h1>Blog</h1>\n")
	writeFile(t, filepath.Join(blog, "views", "general.html"), "<h1>General</h1>\n")

	seo := filepath.Join(pluginsDir, "seo")
	writeManifest(t, seo, `name: seo
version: 0.3.0
settings:
  - sectionId: blog
    links:
      - id: seo
        to: seo
        label:
          id: seo.settings
          defaultMessage: SEO
        view: settings.json
`)
	writeFile(t, filepath.Join(seo, "settings.json"), `{"fields":["metaTitle"]}`)

	return []string{blog, seo}
}

// writeManifest creates plugin.yaml in dir.
func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "plugin.yaml"), content)
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
