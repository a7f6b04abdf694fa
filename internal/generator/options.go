package generator

import (
	"os"
	"strings"

	"github.com/quill-cms/quill/internal/prompt"
)

// Database flag names, as accepted on the command line.
const (
	ArgClient   = "dbclient"
	ArgHost     = "dbhost"
	ArgPort     = "dbport"
	ArgName     = "dbname"
	ArgUsername = "dbusername"
	ArgPassword = "dbpassword"
	ArgSSL      = "dbssl"
	ArgFile     = "dbfile"
)

// DBArgs are the flags that together describe a non-sqlite connection.
var DBArgs = []string{ArgClient, ArgHost, ArgPort, ArgName, ArgUsername, ArgPassword}

// Package manager names.
const (
	NPM  = "npm"
	Yarn = "yarn"
	PNPM = "pnpm"
)

// Options mirrors the flags of "quill new".
type Options struct {
	Directory string

	UseNpm  bool
	UseYarn bool
	UsePnpm bool

	Run        bool
	Quickstart bool
	Template   string
	Starter    string

	TypeScript bool
	JavaScript bool

	SkipInstall bool

	// DB holds the database flags that were provided, keyed by flag name.
	DB map[string]string
}

func (o Options) dbArg(name string) (string, bool) {
	v, ok := o.DB[name]
	return v, ok
}

// PackageManager picks the package manager: an explicit flag wins (npm,
// then pnpm, then yarn), otherwise the one that launched the process.
func PackageManager(opts Options) string {
	switch {
	case opts.UseNpm:
		return NPM
	case opts.UsePnpm:
		return PNPM
	case opts.UseYarn:
		return Yarn
	default:
		return detectPackageManager(os.Getenv("npm_config_user_agent"))
	}
}

// detectPackageManager reads a user agent such as
// "pnpm/8.6.0 npm/? node/v20.11.0 darwin arm64".
func detectPackageManager(userAgent string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(userAgent), "/")
	switch name {
	case Yarn, PNPM:
		return name
	default:
		return NPM
	}
}

// UseTypeScript decides the project language, asking when no flag decides.
func UseTypeScript(opts Options, p prompt.Prompter) (bool, error) {
	if opts.JavaScript {
		return false, nil
	}
	if opts.TypeScript || opts.Quickstart {
		return true, nil
	}
	return p.Confirm("Do you want to use Typescript ?", true)
}
