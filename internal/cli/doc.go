// Package cli defines the Cobra command tree for the quill CLI. Each file
// registers one top-level command; the work itself lives in the internal
// packages the commands call.
package cli
