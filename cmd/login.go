// -- cmd/login.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lupen-dev/Mori/api/schemas"
	"github.com/Lupen-dev/Mori/internal/login"
	"github.com/Lupen-dev/Mori/internal/observability"
)

func newLoginCommand() *cobra.Command {
	var creds schemas.Credentials

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Run the automated Google login and print the captured Growtopia token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			result := login.Perform(cmd.Context(), cfg, creds, logger)
			if !result.Success {
				return fmt.Errorf("login failed: %s", result.Error)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token: %s\n", result.Token)
			fmt.Fprintf(out, "user-agent: %s\n", result.UserAgent)
			fmt.Fprintf(out, "mac: %s\n", result.MACAddress)
			return nil
		},
	}

	loginCmd.Flags().StringVar(&creds.Email, "email", "", "Google account email")
	loginCmd.Flags().StringVar(&creds.Password, "password", "", "Google account password")
	loginCmd.Flags().StringVar(&creds.RecoveryEmail, "recovery", "", "recovery email for the verification prompt (optional)")
	loginCmd.Flags().StringVar(&creds.Proxy, "proxy", "", "proxy server address (optional)")
	loginCmd.Flags().BoolVar(&creds.Headless, "headless", true, "run the browser without a visible window")

	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	return loginCmd
}
