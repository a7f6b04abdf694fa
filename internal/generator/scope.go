package generator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/quill-cms/quill/internal/branding"
)

// Scope is the generation-time configuration driving project scaffolding.
type Scope struct {
	RootPath            string            `json:"rootPath"`
	Name                string            `json:"name"`
	Template            string            `json:"template,omitempty"`
	FrameworkVersion    string            `json:"frameworkVersion"`
	InstallDependencies bool              `json:"installDependencies"`
	Dependencies        map[string]string `json:"dependencies"`
	DevDependencies     map[string]string `json:"devDependencies"`
	Docker              bool              `json:"docker"`
	PackageManager      string            `json:"packageManager"`
	RunApp              bool              `json:"runApp"`
	Quick               bool              `json:"quick,omitempty"`
	UUID                string            `json:"uuid"`
	DeviceID            string            `json:"deviceId"`
	Database            DatabaseInfo      `json:"database"`
	TmpPath             string            `json:"tmpPath"`
	PackageJSONMeta     map[string]string `json:"packageJsonQuill"`
	UseTypeScript       bool              `json:"useTypescript"`
}

// baseDependencies are the packages every generated project depends on.
func baseDependencies(version string) map[string]string {
	scope := branding.PackageScope()
	return map[string]string{
		scope + "/quill":        version,
		scope + "/plugin-cloud": version,
		"react":                 "^18",
		"react-dom":             "^18",
		"react-router-dom":      "^6",
		"styled-components":     "^5.3",
	}
}

// typeScriptDevDependencies are added to TypeScript projects.
func typeScriptDevDependencies() map[string]string {
	return map[string]string{
		"typescript":       "^5",
		"@types/node":      "^20",
		"@types/react":     "^18",
		"@types/react-dom": "^18",
	}
}

// machineID derives a stable anonymous device id from the OS machine id,
// falling back to a random one.
func machineID() string {
	for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if b, err := os.ReadFile(p); err == nil {
			if id := strings.TrimSpace(string(b)); id != "" {
				sum := sha256.Sum256([]byte(id))
				return hex.EncodeToString(sum[:])
			}
		}
	}
	return uuid.NewString()
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func randomSecret() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// generateSecrets returns the secrets written to the project's .env.
func generateSecrets() map[string]string {
	keys := make([]string, 4)
	for i := range keys {
		keys[i] = randomSecret()
	}
	return map[string]string{
		"APP_KEYS":            strings.Join(keys, ","),
		"API_TOKEN_SALT":      randomSecret(),
		"ADMIN_JWT_SECRET":    randomSecret(),
		"TRANSFER_TOKEN_SALT": randomSecret(),
		"JWT_SECRET":          randomSecret(),
	}
}

func uuidString() string { return uuid.NewString() }
