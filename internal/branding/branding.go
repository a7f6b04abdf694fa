// Package branding provides compile-time identity values for the CLI.
//
// The identity lives in branding.yaml next to this file and is baked into the
// binary with //go:embed. Generated projects pin their framework dependencies
// to FrameworkVersion.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName            string `yaml:"cli_name"`
	DisplayName        string `yaml:"display_name"`
	Description        string `yaml:"description"`
	HomeDir            string `yaml:"home_dir"`
	EnvPrefix          string `yaml:"env_prefix"`
	GoModule           string `yaml:"go_module"`
	FrameworkVersion   string `yaml:"framework_version"`
	CloudAPIURL        string `yaml:"cloud_api_url"`
	DefaultProjectName string `yaml:"default_project_name"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:            "quill",
			DisplayName:        "Quill",
			Description:        "Content framework toolkit",
			HomeDir:            ".quill",
			EnvPrefix:          "QUILL",
			GoModule:           "github.com/quill-cms/quill",
			FrameworkVersion:   "5.4.0",
			CloudAPIURL:        "https://cli.cloud.quill.dev",
			DefaultProjectName: "my-quill-project",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "quill").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Quill").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".quill").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "QUILL").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// FrameworkVersion is the version generated projects depend on.
func FrameworkVersion() string { load(); return defaults.FrameworkVersion }

// CloudAPIURL is the default base URL of the cloud CLI API.
func CloudAPIURL() string { load(); return defaults.CloudAPIURL }

// DefaultProjectName is offered when the user does not name the project.
func DefaultProjectName() string { load(); return defaults.DefaultProjectName }

// PackageScope returns the npm scope framework packages are published under.
func PackageScope() string { load(); return "@" + defaults.CLIName }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "QUILL_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
