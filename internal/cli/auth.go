package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/quill-cms/quill/internal/cloudapi"
	"github.com/quill-cms/quill/internal/config"
	"github.com/quill-cms/quill/internal/localconfig"
	"github.com/quill-cms/quill/internal/token"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func cloudClient(opts ...cloudapi.Option) *cloudapi.Client {
	base := []cloudapi.Option{
		cloudapi.WithBaseURL(config.CloudAPIURL()),
		cloudapi.WithHTTPClient(&http.Client{Timeout: config.CloudTimeout()}),
	}
	return cloudapi.New(append(base, opts...)...)
}

func tokenService(out io.Writer) *token.Service {
	return token.NewService(
		localconfig.NewStore(config.CloudRecordPath()),
		cloudClient(),
		token.WithLogger(logger),
		token.WithOutput(out),
	)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the cloud",
	Long:  `Log in with the device authorization flow. A code is printed for you to confirm in a browser.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		svc := tokenService(cmd.ErrOrStderr())

		ctx, cancel := context.WithTimeout(cmd.Context(), config.CloudTimeout())
		_, loggedIn := svc.RetrieveToken(ctx)
		cancel()
		if loggedIn {
			fmt.Fprintln(out, "You are already logged in.")
			return nil
		}

		err := svc.Login(cmd.Context(), &http.Client{Timeout: config.CloudTimeout()}, func(dc token.DeviceCode) {
			fmt.Fprintf(out, "Open %s and confirm the code %s\n", dc.VerificationURI, dc.UserCode)
		})
		if err != nil {
			return fmt.Errorf("logging in: %w", err)
		}
		fmt.Fprintln(out, "You are now logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of the cloud",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenService(cmd.ErrOrStderr()).EraseToken()
		fmt.Fprintln(cmd.OutOrStdout(), "You have been logged out.")
		return nil
	},
}

var errNotLoggedIn = errors.New("not logged in")

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in cloud user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.CloudTimeout())
		defer cancel()

		tok, ok := tokenService(cmd.ErrOrStderr()).GetValidToken(ctx)
		if !ok {
			return errNotLoggedIn
		}

		u, err := cloudClient(cloudapi.WithToken(tok)).Me(ctx)
		if err != nil {
			logger.Debug("fetching user profile", zap.Error(err))
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", u.Name, u.Email)
		return nil
	},
}
