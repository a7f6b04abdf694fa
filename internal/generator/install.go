package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Installer runs the package manager inside a generated project.
type Installer interface {
	Install(ctx context.Context, dir, packageManager string) error
	Develop(ctx context.Context, dir, packageManager string) error
}

// ExecInstaller runs the package manager binary.
type ExecInstaller struct {
	// Stdout and Stderr default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

var _ Installer = (*ExecInstaller)(nil)

// Install runs "<pm> install".
func (e *ExecInstaller) Install(ctx context.Context, dir, pm string) error {
	return e.run(ctx, dir, pm, "install")
}

// Develop runs "<pm> run develop".
func (e *ExecInstaller) Develop(ctx context.Context, dir, pm string) error {
	return e.run(ctx, dir, pm, "run", "develop")
}

func (e *ExecInstaller) run(ctx context.Context, dir, pm string, args ...string) error {
	bin, err := exec.LookPath(pm)
	if err != nil {
		return fmt.Errorf("package manager %s not found: %w", pm, err)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdout = e.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = e.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s %v: %w", pm, args, err)
	}
	return nil
}
