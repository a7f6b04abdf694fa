package cli

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/quill-cms/quill/internal/admin"
	"github.com/quill-cms/quill/internal/plugin"
	"github.com/quill-cms/quill/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveAddr string
	serveBase string
)

func init() {
	defaults := server.DefaultConfig()
	adminServeCmd.Flags().StringVar(&serveAddr, "addr", defaults.Addr, "Address to listen on")
	adminServeCmd.Flags().StringVar(&serveBase, "base", defaults.Basename, "Base path of the admin panel")

	adminCmd.AddCommand(adminLinksCmd)
	adminCmd.AddCommand(adminServeCmd)
	rootCmd.AddCommand(adminCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Inspect and serve the admin panel of a set of plugins",
}

var adminLinksCmd = &cobra.Command{
	Use:   "links <plugin-dir>...",
	Short: "Print the menu and settings links the plugins register",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plugins, err := plugin.LoadAll(args...)
		if err != nil {
			return err
		}
		adminPlugins := make([]admin.Plugin, 0, len(plugins))
		for _, p := range plugins {
			adminPlugins = append(adminPlugins, p)
		}
		reg, err := admin.NewRegistry(admin.WithLogger(logger)).Initialize(cmd.Context(), adminPlugins...)
		if err != nil {
			return err
		}
		printLinks(cmd.OutOrStdout(), reg)
		return nil
	},
}

func printLinks(w io.Writer, reg *admin.Registry) {
	fmt.Fprintln(w, "Menu:")
	for _, l := range reg.Menu() {
		fmt.Fprintf(w, "  /%-30s %s\n", l.To, l.IntlLabel.DefaultMessage)
	}
	fmt.Fprintln(w, "Settings:")
	for _, s := range reg.Sections() {
		fmt.Fprintf(w, "  [%s] %s\n", s.ID, s.IntlLabel.DefaultMessage)
		for _, l := range s.Links {
			fmt.Fprintf(w, "    /settings/%-21s %s\n", l.To, l.IntlLabel.DefaultMessage)
		}
	}
}

var adminServeCmd = &cobra.Command{
	Use:   "serve <plugin-dir>...",
	Short: "Serve the admin panel and content API of the plugins",
	Long: `Serve the links, views and content types of the given plugins.

Webhooks listed under the "webhooks" config key are registered at startup.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plugins, err := plugin.LoadAll(args...)
		if err != nil {
			return err
		}

		cfg := server.Config{Addr: serveAddr, Basename: serveBase}
		if err := viper.UnmarshalKey("webhooks", &cfg.Webhooks); err != nil {
			return fmt.Errorf("reading webhooks config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, plugins, server.WithLogger(logger))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Admin panel available at http://%s%s\n", serveAddr, serveBase)
		return srv.Start(ctx)
	},
}
