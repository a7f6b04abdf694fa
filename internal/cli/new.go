package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/quill-cms/quill/internal/branding"
	"github.com/quill-cms/quill/internal/config"
	"github.com/quill-cms/quill/internal/generator"
	"github.com/quill-cms/quill/internal/prompt"
	"github.com/quill-cms/quill/internal/updater"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var newOpts generator.Options

// nodeVersion probes the installed Node.js; tests replace it.
var nodeVersion generator.NodeVersionFunc = generator.NodeVersion

var newDBFlags = []struct {
	name  string
	usage string
}{
	{generator.ArgClient, "Database client"},
	{generator.ArgHost, "Database host"},
	{generator.ArgPort, "Database port"},
	{generator.ArgName, "Database name"},
	{generator.ArgUsername, "Database username"},
	{generator.ArgPassword, "Database password"},
	{generator.ArgSSL, "Database SSL"},
	{generator.ArgFile, "Database file path for sqlite"},
}

func init() {
	f := newCmd.Flags()
	f.BoolVar(&newOpts.Quickstart, "quickstart", false, "Quickstart app creation")
	f.BoolVar(&newOpts.Quickstart, "quick", false, "Alias of --quickstart")
	f.BoolVar(&newOpts.Run, "run", false, "Start the app after it is created")
	f.BoolVar(&newOpts.TypeScript, "typescript", false, "Initialize the project with TypeScript (default)")
	f.BoolVar(&newOpts.TypeScript, "ts", false, "Alias of --typescript")
	f.BoolVar(&newOpts.JavaScript, "javascript", false, "Initialize the project with JavaScript")
	f.BoolVar(&newOpts.JavaScript, "js", false, "Alias of --javascript")
	f.BoolVar(&newOpts.UseNpm, "use-npm", false, "Force usage of npm to create the project")
	f.BoolVar(&newOpts.UseYarn, "use-yarn", false, "Force usage of yarn to create the project")
	f.BoolVar(&newOpts.UsePnpm, "use-pnpm", false, "Force usage of pnpm to create the project")
	f.BoolVar(&newOpts.SkipInstall, "skip-install", false, "Write the project without installing dependencies")
	f.StringVar(&newOpts.Template, "template", "", "Specify a template directory or URL")
	f.StringVar(&newOpts.Starter, "starter", "", "Record the starter the project was created from")
	for _, db := range newDBFlags {
		f.String(db.name, "", db.usage)
	}
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new [directory]",
	Short: "Create a new " + branding.DisplayName() + " application",
	Long: `Create a new application in directory, asking for whatever the flags leave open.

Examples:
  ` + branding.CLIName() + ` new my-project --quickstart
  ` + branding.CLIName() + ` new blog --ts --dbclient=postgres --dbhost=127.0.0.1 --dbport=5432 \
      --dbname=blog --dbusername=admin --dbpassword=secret`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := newOpts
		if len(args) == 1 {
			opts.Directory = args[0]
		}
		if err := checkTemplate(cmd.Flags(), opts.Template); err != nil {
			return err
		}
		opts.DB = changedDBFlags(cmd.Flags())

		var p prompt.Prompter
		if prompt.Interactive(os.Stdin) || cmd.InOrStdin() != os.Stdin {
			p = prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
		}

		_, err := generator.GenerateNewApp(cmd.Context(), opts, generator.Deps{
			Prompter:    p,
			Installer:   &generator.ExecInstaller{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()},
			NodeVersion: nodeVersion,
			Logger:      logger,
			Out:         cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}

		if config.UpdateCheck() {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			updater.New(branding.FrameworkVersion()).CheckAndPrintBanner(ctx, cmd.ErrOrStderr(), config.Dir())
		}
		return nil
	},
}

// checkTemplate rejects a --template value that is one of the command's own
// flags, which happens when the template argument is forgotten.
func checkTemplate(flags *pflag.FlagSet, template string) error {
	if template == "" {
		return nil
	}
	invalid := false
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		if template == "--"+f.Name || (f.Shorthand != "" && template == "-"+f.Shorthand) {
			invalid = true
		}
	})
	if invalid {
		return &generator.UsageError{Msg: fmt.Sprintf("%s is not a valid template", template)}
	}
	return nil
}

// changedDBFlags collects the database flags given on the command line.
func changedDBFlags(flags *pflag.FlagSet) map[string]string {
	out := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		for _, db := range newDBFlags {
			if f.Name == db.name {
				out[f.Name] = f.Value.String()
			}
		}
	})
	return out
}
