// Package logging builds the zap loggers used across the CLI. Libraries accept a
// *zap.Logger and fall back to zap.NewNop(); only the command layer decides the
// level and encoding.
package logging
