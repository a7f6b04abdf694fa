package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quill-cms/quill/internal/admin"
	"github.com/quill-cms/quill/internal/generator"
	"github.com/quill-cms/quill/internal/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seoManifest = `name: seo
version: 1.0.0
menu:
  - to: /plugins/seo
    label:
      id: seo.plugin.name
      defaultMessage: SEO
    view: index.html
settings:
  - sectionId: global
    links:
      - id: seo-settings
        to: /settings/seo
        label:
          id: seo.settings
          defaultMessage: SEO settings
        view: settings.html
`

func writeSEOPlugin(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0o644))
	return dir
}

// run executes the root command with args against an isolated config dir.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runIn(t, t.TempDir(), args...)
}

func runIn(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("QUILL_CONFIG_DIR", configDir)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckTemplate(t *testing.T) {
	flags := newCmd.Flags()

	tests := []struct {
		template string
		wantErr  bool
	}{
		{"", false},
		{"https://github.com/quill-cms/template-blog", false},
		{"--quickstart", true},
		{"--dbclient", true},
		{"quickstart", false},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			err := checkTemplate(flags, tt.template)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var usage *generator.UsageError
			require.True(t, errors.As(err, &usage))
			assert.Equal(t, tt.template+" is not a valid template", usage.Msg)
		})
	}
}

func TestChangedDBFlags(t *testing.T) {
	fs := pflag.NewFlagSet("new", pflag.ContinueOnError)
	for _, db := range newDBFlags {
		fs.String(db.name, "", db.usage)
	}
	fs.Bool("quickstart", false, "")
	require.NoError(t, fs.Parse([]string{"--dbclient=postgres", "--dbssl", "true", "--dbpassword=", "--quickstart"}))

	assert.Equal(t, map[string]string{
		"dbclient":   "postgres",
		"dbssl":      "true",
		"dbpassword": "",
	}, changedDBFlags(fs))
}

// resetNewFlags restores the new command's flags after the test; cobra keeps
// parsed values between executions.
func resetNewFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		newCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
}

func stubNode(t *testing.T, version string) {
	t.Helper()
	prev := nodeVersion
	nodeVersion = func(context.Context) (string, error) { return version, nil }
	t.Cleanup(func() { nodeVersion = prev })
}

func TestNewRejectsFlagAsTemplate(t *testing.T) {
	resetNewFlags(t)
	_, err := run(t, "new", filepath.Join(t.TempDir(), "app"), "--template", "--quickstart")
	require.EqualError(t, err, "--quickstart is not a valid template")
}

func TestNewNamesMissingDatabaseArguments(t *testing.T) {
	resetNewFlags(t)
	stubNode(t, "v20.11.0")
	dir := filepath.Join(t.TempDir(), "app")

	_, err := run(t, "new", dir, "--ts", "--skip-install", "--dbclient=postgres", "--dbhost=x")
	var usage *generator.UsageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, "Required database arguments are missing: dbport, dbname, dbusername, dbpassword.", usage.Msg)
	assert.NoDirExists(t, dir)
}

func TestNewRejectsUnsupportedNode(t *testing.T) {
	resetNewFlags(t)
	stubNode(t, "v16.20.2")

	_, err := run(t, "new", filepath.Join(t.TempDir(), "app"), "--quickstart", "--skip-install")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "You are running Node.js v16.20.2")
}

func TestPrintLinks(t *testing.T) {
	p, err := plugin.LoadFor(writeSEOPlugin(t, seoManifest), "5.4.0")
	require.NoError(t, err)
	reg, err := admin.Initialize(context.Background(), p)
	require.NoError(t, err)

	var out bytes.Buffer
	printLinks(&out, reg)

	s := out.String()
	assert.Contains(t, s, "/plugins/seo")
	assert.Contains(t, s, "[global]")
	assert.Contains(t, s, "/settings/seo")
	assert.Contains(t, s, "SEO settings")
}

func TestPluginValidateCommand(t *testing.T) {
	out, err := run(t, "plugin", "validate", writeSEOPlugin(t, seoManifest))
	require.NoError(t, err)
	assert.Contains(t, out, "seo 1.0.0 is valid")

	dir := writeSEOPlugin(t, "name: Bad Name\nversion: 1.0.0\n")
	out, err = run(t, "plugin", "validate", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a valid plugin")
	assert.Contains(t, out, "issue(s)")
}

func TestAdminLinksCommand(t *testing.T) {
	out, err := run(t, "admin", "links", writeSEOPlugin(t, seoManifest))
	require.NoError(t, err)
	assert.Contains(t, out, "Menu:")
	assert.Contains(t, out, "/plugins/seo")
}

func TestRuntimeCheck(t *testing.T) {
	node := func(context.Context) (string, error) { return "v20.11.0", nil }
	lookPath := func(name string) (string, error) {
		if name == generator.NPM {
			return "/usr/bin/npm", nil
		}
		return "", errors.New("not found")
	}

	var out bytes.Buffer
	runRuntimeCheck(context.Background(), &out, node, lookPath)

	s := out.String()
	assert.Contains(t, s, "[ OK ] node v20.11.0")
	assert.Contains(t, s, "[ OK ] npm found at /usr/bin/npm")
	assert.Contains(t, s, "[MISS] yarn not found")
}

func TestVersionCommand(t *testing.T) {
	buildVersion = "1.2.3"
	t.Cleanup(func() { versionShort = false })
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestPrintVersion(t *testing.T) {
	info := versionInfo{Version: "1.2.3", Commit: "abc", Date: "2026-01-02", Framework: "5.4.0", Latest: "5.5.0"}

	var text bytes.Buffer
	require.NoError(t, printVersion(&text, info, false))
	assert.Contains(t, text.String(), "quill 1.2.3 (commit abc, built 2026-01-02)")
	assert.Contains(t, text.String(), "latest published release: 5.5.0")

	var js bytes.Buffer
	require.NoError(t, printVersion(&js, info, true))
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc","date":"2026-01-02","framework":"5.4.0","latestFramework":"5.5.0"}`, js.String())
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	_, err := run(t, "config", "set", "webhooks", "x")
	var usage *generator.UsageError
	require.ErrorAs(t, err, &usage)
	assert.Contains(t, usage.Msg, "unknown config key")
}

func TestConfigSetAndList(t *testing.T) {
	dir := t.TempDir()
	out, err := runIn(t, dir, "config", "set", "cloud.timeout", "45s")
	require.NoError(t, err)
	assert.Equal(t, "cloud.timeout = 45s\n", out)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	out, err = runIn(t, dir, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cloud.timeout = 45s")
	assert.Contains(t, out, "update_check = true")
}
