package cli

import (
	"errors"
	"fmt"

	"github.com/quill-cms/quill/internal/plugin"
	"github.com/spf13/cobra"
)

func init() {
	pluginCmd.AddCommand(pluginValidateCmd)
	rootCmd.AddCommand(pluginCmd)
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Work with admin plugins",
}

var pluginValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Validate a plugin manifest",
	Long:  `Validate ` + plugin.ManifestFile + ` in dir against the manifest schema, then check its version requirement, views and content types.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		p, err := plugin.Load(args[0])

		var invalid *plugin.InvalidManifestError
		if errors.As(err, &invalid) {
			fmt.Fprintf(out, "%s: %d issue(s)\n", args[0], len(invalid.Issues))
			for _, issue := range invalid.Issues {
				fmt.Fprintf(out, "  %s\n", issue)
			}
			return fmt.Errorf("%s is not a valid plugin", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s is valid: %d menu link(s), %d settings entries, %d content type(s)\n",
			p.Name(), p.Manifest.Version, len(p.Manifest.Menu), len(p.Manifest.Settings), len(p.Manifest.ContentTypes))
		return nil
	},
}
