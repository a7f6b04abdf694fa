package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NodeConstraint is the range of Node.js versions generated projects run on.
const NodeConstraint = ">=18.0.0 <=22.x.x"

// ErrNodeMissing is returned when no node binary is on PATH.
var ErrNodeMissing = errors.New("Node.js is required to create a Quill application")

// NodeVersionFunc reports the installed Node.js version, e.g. "v20.11.0".
type NodeVersionFunc func(ctx context.Context) (string, error)

// NodeVersion runs "node --version".
func NodeVersion(ctx context.Context) (string, error) {
	nodeBin, err := exec.LookPath("node")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNodeMissing, err)
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, nodeBin, "--version")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running node --version: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CheckRequirements verifies the installed Node.js satisfies NodeConstraint.
func CheckRequirements(ctx context.Context, version NodeVersionFunc) error {
	raw, err := version(ctx)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return fmt.Errorf("parsing node version %q: %w", raw, err)
	}
	c, err := semver.NewConstraint(NodeConstraint)
	if err != nil {
		return fmt.Errorf("parsing node constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("You are running Node.js %s. Quill requires Node.js %s. Please make sure to use the right version of Node.", raw, NodeConstraint)
	}
	return nil
}
