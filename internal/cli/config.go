package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/quill-cms/quill/internal/config"
	"github.com/quill-cms/quill/internal/generator"
	"github.com/spf13/cobra"
)

// settableKeys are the scalar keys "config set" accepts. Webhooks are
// structured and edited in the config file directly.
var settableKeys = []string{
	config.KeyLogLevel,
	config.KeyLogFormat,
	config.KeyCloudAPIURL,
	config.KeyCloudTimeout,
	config.KeyUpdateCheck,
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored in the config file (` + config.FilePath() + `).

Keys: ` + strings.Join(settableKeys, ", ") + `.
Webhooks registered by "admin serve" live under the webhooks key of the same file.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !slices.Contains(settableKeys, key) {
			return &generator.UsageError{Msg: fmt.Sprintf("unknown config key %q (expected one of %s)", key, strings.Join(settableKeys, ", "))}
		}
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		logger.Debug("config updated")
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every known key with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, key := range settableKeys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, config.Get(key))
		}
		return nil
	},
}
