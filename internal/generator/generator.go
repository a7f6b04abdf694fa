package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quill-cms/quill/internal/branding"
	"github.com/quill-cms/quill/internal/prompt"
	"github.com/quill-cms/quill/internal/scaffold"
	"go.uber.org/zap"
)

// Deps are the collaborators of GenerateNewApp. Zero values are replaced
// with the real implementations, except Prompter which is required unless
// every question is answered by flags.
type Deps struct {
	Prompter    prompt.Prompter
	Installer   Installer
	NodeVersion NodeVersionFunc
	Logger      *zap.Logger
	Out         io.Writer
	Getenv      func(string) string
}

func (d *Deps) setDefaults() {
	if d.Installer == nil {
		d.Installer = &ExecInstaller{}
	}
	if d.NodeVersion == nil {
		d.NodeVersion = NodeVersion
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Out == nil {
		d.Out = io.Discard
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.Prompter == nil {
		d.Prompter = noPrompter{}
	}
}

// ErrPromptRequired is returned when a question must be asked but no
// Prompter is available.
var ErrPromptRequired = errors.New("interactive input required")

type noPrompter struct{}

func (noPrompter) Confirm(q string, _ bool) (bool, error) {
	return false, fmt.Errorf("%w: %s", ErrPromptRequired, q)
}

func (noPrompter) Select(q string, _ []prompt.Choice, _ int) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrPromptRequired, q)
}

func (noPrompter) Input(q, _ string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrPromptRequired, q)
}

func (noPrompter) Password(q string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrPromptRequired, q)
}

// CheckInstallPath resolves dir to an absolute path that is absent or an
// empty directory.
func CheckInstallPath(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return root, nil
	}
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", &UsageError{Msg: fmt.Sprintf("%s is not a directory. Make sure to create a Quill application in an empty directory.", root)}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", root, err)
	}
	if len(entries) > 0 {
		return "", &UsageError{Msg: fmt.Sprintf("%s is not an empty directory. Make sure to create a Quill application in an empty directory.", root)}
	}
	return root, nil
}

// NewScope resolves the generation scope from opts, asking d.Prompter for
// whatever the options leave open. Nothing is written to disk.
func NewScope(ctx context.Context, opts Options, d Deps) (*Scope, error) {
	d.setDefaults()

	if err := CheckRequirements(ctx, d.NodeVersion); err != nil {
		return nil, err
	}

	dir := opts.Directory
	if dir == "" {
		name, err := d.Prompter.Input("What is the name of your project?", branding.DefaultProjectName())
		if err != nil {
			return nil, err
		}
		dir = name
	}
	rootPath, err := CheckInstallPath(dir)
	if err != nil {
		return nil, err
	}

	version := branding.FrameworkVersion()
	scope := &Scope{
		RootPath:            rootPath,
		Name:                filepath.Base(rootPath),
		RunApp:              opts.Run || opts.Quickstart,
		FrameworkVersion:    version,
		Quick:               opts.Quickstart,
		Template:            opts.Template,
		PackageJSONMeta:     map[string]string{},
		UUID:                d.Getenv(branding.EnvVar("UUID_PREFIX")) + uuidString(),
		Docker:              d.Getenv("DOCKER") == "true",
		DeviceID:            machineID(),
		TmpPath:             filepath.Join(os.TempDir(), branding.CLIName()+randomHex(6)),
		PackageManager:      PackageManager(opts),
		InstallDependencies: true,
		Dependencies:        baseDependencies(version),
		DevDependencies:     map[string]string{},
	}
	if opts.Template != "" {
		scope.PackageJSONMeta["template"] = opts.Template
	}
	if opts.Starter != "" {
		scope.PackageJSONMeta["starter"] = opts.Starter
	}

	scope.UseTypeScript, err = UseTypeScript(opts, d.Prompter)
	if err != nil {
		return nil, err
	}
	if scope.UseTypeScript {
		for k, v := range typeScriptDevDependencies() {
			scope.DevDependencies[k] = v
		}
	}

	db, err := ParseDatabaseArguments(opts, d.Prompter)
	if err != nil {
		return nil, err
	}
	db.mergeInto(scope)

	d.Logger.Debug("scope resolved",
		zap.String("root", scope.RootPath),
		zap.String("packageManager", scope.PackageManager),
		zap.String("database", scope.Database.Client),
		zap.Bool("typescript", scope.UseTypeScript))
	return scope, nil
}

// GenerateNewApp resolves the scope, renders the project and installs its
// dependencies. The project is started afterwards when the scope asks for it.
func GenerateNewApp(ctx context.Context, opts Options, d Deps) (*Scope, error) {
	d.setDefaults()

	scope, err := NewScope(ctx, opts, d)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(d.Out, "Creating a new Quill application at %s.\n", scope.RootPath)

	res, err := scaffold.Generate(scaffold.SetFor(scope.UseTypeScript), scaffoldData(scope), scope.RootPath)
	if err != nil {
		return nil, fmt.Errorf("creating project files: %w", err)
	}
	d.Logger.Debug("project files written", zap.Int("files", len(res.Files)))

	if scope.InstallDependencies && !opts.SkipInstall {
		fmt.Fprintf(d.Out, "Installing dependencies with %s.\n", scope.PackageManager)
		if err := d.Installer.Install(ctx, scope.RootPath, scope.PackageManager); err != nil {
			return nil, fmt.Errorf("installing dependencies: %w", err)
		}
	}

	fmt.Fprintf(d.Out, "Your application was created at %s.\n", scope.RootPath)

	if scope.RunApp && !opts.SkipInstall {
		fmt.Fprintln(d.Out, "Running your Quill application.")
		if err := d.Installer.Develop(ctx, scope.RootPath, scope.PackageManager); err != nil {
			return nil, fmt.Errorf("starting application: %w", err)
		}
		return scope, nil
	}

	fmt.Fprintf(d.Out, "\nTo get started:\n\n  cd %s\n  %s run develop\n", scope.RootPath, scope.PackageManager)
	return scope, nil
}

func scaffoldData(s *Scope) *scaffold.Data {
	c := s.Database.Connection
	db := scaffold.Database{
		Client:           s.Database.Client,
		Host:             c.Host,
		Port:             c.Port,
		Name:             c.Database,
		Username:         c.Username,
		Password:         c.Password,
		Filename:         c.Filename,
		SSL:              c.SSL != nil && *c.SSL,
		UseNullAsDefault: s.Database.UseNullAsDefault,
	}
	return &scaffold.Data{
		Name:             s.Name,
		FrameworkVersion: s.FrameworkVersion,
		PackageScope:     branding.PackageScope(),
		UUID:             s.UUID,
		Template:         s.PackageJSONMeta["template"],
		Starter:          s.PackageJSONMeta["starter"],
		PackageManager:   s.PackageManager,
		TypeScript:       s.UseTypeScript,
		Dependencies:     s.Dependencies,
		DevDependencies:  s.DevDependencies,
		Database:         db,
		Secrets:          generateSecrets(),
	}
}
