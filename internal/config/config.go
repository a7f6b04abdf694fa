package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quill-cms/quill/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"

	// cloudRecordFile holds the login state written by the token service.
	cloudRecordFile = "cloud.json"
)

// Known configuration keys.
const (
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyCloudAPIURL  = "cloud.api_url"
	KeyCloudTimeout = "cloud.timeout"
	KeyUpdateCheck  = "update_check"
)

// Dir returns the path to the config directory (~/.quill/).
// QUILL_CONFIG_DIR overrides the location.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("CONFIG_DIR")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.quill/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// CloudRecordPath returns the path of the persisted cloud login record.
func CloudRecordPath() string {
	return filepath.Join(Dir(), cloudRecordFile)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeyLogLevel, "warn")
	viper.SetDefault(KeyLogFormat, "console")
	viper.SetDefault(KeyCloudAPIURL, branding.CloudAPIURL())
	viper.SetDefault(KeyCloudTimeout, "30s")
	viper.SetDefault(KeyUpdateCheck, true)

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// UpdateCheck reports whether "new" may query the registry for releases.
func UpdateCheck() bool { return viper.GetBool(KeyUpdateCheck) }

// LogLevel returns the configured log level.
func LogLevel() string { return viper.GetString(KeyLogLevel) }

// LogFormat returns the configured log format.
func LogFormat() string { return viper.GetString(KeyLogFormat) }

// CloudAPIURL returns the cloud CLI API base URL without a trailing slash.
func CloudAPIURL() string {
	return strings.TrimRight(viper.GetString(KeyCloudAPIURL), "/")
}

// CloudTimeout returns the timeout applied to each remote cloud call.
// Unparseable values fall back to 30 seconds.
func CloudTimeout() time.Duration {
	d, err := time.ParseDuration(viper.GetString(KeyCloudTimeout))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
