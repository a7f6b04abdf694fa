package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/quill-cms/quill/internal/config"
	"github.com/quill-cms/quill/internal/generator"
	"github.com/spf13/cobra"
)

var (
	checkRuntime bool
	checkConfig  bool
	checkCloud   bool
)

func init() {
	doctorCmd.Flags().BoolVar(&checkRuntime, "check-runtime", false, "Verify Node.js and package managers")
	doctorCmd.Flags().BoolVar(&checkConfig, "check-config", false, "Verify the config directory")
	doctorCmd.Flags().BoolVar(&checkCloud, "check-cloud", false, "Verify the cloud login")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment new projects need",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		all := !checkRuntime && !checkConfig && !checkCloud

		if all || checkRuntime {
			runRuntimeCheck(cmd.Context(), out, generator.NodeVersion, exec.LookPath)
		}
		if all || checkConfig {
			runConfigCheck(out)
		}
		if all || checkCloud {
			runCloudCheck(cmd.Context(), out)
		}
		return nil
	},
}

func runRuntimeCheck(ctx context.Context, out io.Writer, node generator.NodeVersionFunc, lookPath func(string) (string, error)) {
	fmt.Fprintln(out, "Runtime check:")
	if err := generator.CheckRequirements(ctx, node); err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
	} else {
		v, _ := node(ctx)
		fmt.Fprintf(out, "  [ OK ] node %s satisfies %s\n", v, generator.NodeConstraint)
	}
	for _, pm := range []string{generator.NPM, generator.PNPM, generator.Yarn} {
		path, err := lookPath(pm)
		if err != nil {
			fmt.Fprintf(out, "  [MISS] %s not found\n", pm)
			continue
		}
		fmt.Fprintf(out, "  [ OK ] %s found at %s\n", pm, path)
	}
}

func runConfigCheck(out io.Writer) {
	fmt.Fprintln(out, "Config check:")
	info, err := os.Stat(config.Dir())
	switch {
	case os.IsNotExist(err):
		fmt.Fprintf(out, "  [MISS] %s does not exist yet\n", config.Dir())
	case err != nil:
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
	case !info.IsDir():
		fmt.Fprintf(out, "  [FAIL] %s is not a directory\n", config.Dir())
	default:
		fmt.Fprintf(out, "  [ OK ] %s\n", config.Dir())
	}
	fmt.Fprintf(out, "  log level %s, format %s, cloud API %s\n", config.LogLevel(), config.LogFormat(), config.CloudAPIURL())
}

func runCloudCheck(ctx context.Context, out io.Writer) {
	fmt.Fprintln(out, "Cloud check:")
	ctx, cancel := context.WithTimeout(ctx, config.CloudTimeout())
	defer cancel()
	if _, ok := tokenService(io.Discard).RetrieveToken(ctx); ok {
		fmt.Fprintln(out, "  [ OK ] logged in")
		return
	}
	fmt.Fprintln(out, "  [MISS] not logged in")
}
