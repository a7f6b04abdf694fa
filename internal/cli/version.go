package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/quill-cms/quill/internal/branding"
	"github.com/quill-cms/quill/internal/updater"
	"github.com/spf13/cobra"
)

var (
	versionShort  bool
	versionJSON   bool
	versionLatest bool
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Framework string `json:"framework"`
	Latest    string `json:"latestFramework,omitempty"`
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the CLI version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	versionCmd.Flags().BoolVar(&versionLatest, "latest", false, "Also look up the latest published framework release")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI and framework versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), buildVersion)
			return nil
		}

		info := versionInfo{
			Version:   buildVersion,
			Commit:    buildCommit,
			Date:      buildDate,
			Framework: branding.FrameworkVersion(),
		}
		if versionLatest {
			latest, err := updater.New(info.Framework).LatestVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("looking up latest framework release: %w", err)
			}
			info.Latest = latest
		}
		return printVersion(cmd.OutOrStdout(), info, versionJSON)
	},
}

func printVersion(w io.Writer, info versionInfo, asJSON bool) error {
	if asJSON {
		b, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling version info: %w", err)
		}
		fmt.Fprintln(w, string(b))
		return nil
	}

	fmt.Fprintf(w, "%s %s (commit %s, built %s)\n", branding.CLIName(), info.Version, info.Commit, info.Date)
	fmt.Fprintf(w, "generates %s projects on %s\n", branding.DisplayName(), info.Framework)
	if info.Latest != "" {
		fmt.Fprintf(w, "latest published release: %s\n", info.Latest)
	}
	return nil
}
