// ABOUTME: Mail CLI commands
// ABOUTME: Runs the Google OAuth consent flow and stores the token for the gmail transport
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/expirytrack/mail"
)

func (a *app) mailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Configure outgoing mail",
	}
	cmd.AddCommand(a.mailAuthCmd())
	return cmd
}

func (a *app) mailAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "auth",
		Short:       "Authorize sending through Gmail",
		Long:        "Opens the Google consent page and stores the token at mail.token_path.\nRequires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.",
		Annotations: map[string]string{noDatabase: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			oauthConfig := mail.NewOAuthConfig(a.cfg.Mail.ClientID, a.cfg.Mail.ClientSecret)

			token, err := mail.Authorize(cmd.Context(), oauthConfig, out)
			if err != nil {
				return err
			}
			if err := mail.SaveToken(a.cfg.Mail.TokenPath, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			_, _ = fmt.Fprintf(out, "✓ Gmail authorized, token saved to %s\n", a.cfg.Mail.TokenPath)
			_, _ = fmt.Fprintln(out, "  Set mail.transport: gmail and mail.from in your config to send through it.")
			return nil
		},
	}
}
