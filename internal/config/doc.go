// Package config manages user-level settings stored at ~/.quill/config.yaml.
// It loads, reads and writes keys such as the log level and the cloud API
// base URL, with QUILL_-prefixed environment variables taking precedence.
package config
