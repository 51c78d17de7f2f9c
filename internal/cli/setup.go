package cli

import (
	"context"
	"os"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/spf13/cobra"
)

func newSetupCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Enroll a user in an MFA method",
		Long: `Create or replace a user's MFA enrollment. The enrollment starts unverified;
confirm it with "mfactl enable". An enabled enrollment cannot be replaced.`,
	}

	cmd.AddCommand(newSetupAuthenticatorCmd(c), newSetupOutOfBandCmd(c, entity.MFAMethodSMS), newSetupOutOfBandCmd(c, entity.MFAMethodEmail))

	return cmd
}

func newSetupAuthenticatorCmd(c *cli) *cobra.Command {
	var (
		userID  int64
		account string
		qrFile  string
	)

	cmd := &cobra.Command{
		Use:     "authenticator",
		Short:   "Provision an authenticator app secret",
		Example: `  mfactl setup authenticator --user 42 --account jane@example.com --qr-file jane.png`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMFA(cmd, func(ctx context.Context, mfa mfaService) error {
				out, err := mfa.SetupAuthenticator(ctx, usecase.SetupAuthenticatorInput{
					UserID:      userID,
					AccountName: account,
					WithQR:      qrFile != "",
				})
				if err != nil {
					return err
				}

				if qrFile != "" {
					if err := os.WriteFile(qrFile, out.QRCode, 0o600); err != nil {
						return err
					}
				}

				return c.print(struct {
					Secret string `json:"secret"`
					URI    string `json:"uri"`
					QRFile string `json:"qr_file,omitempty"`
				}{out.Secret, out.URI, qrFile},
					field{"secret", out.Secret},
					field{"uri", out.URI},
					field{"qr file", qrFile},
				)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&account, "account", "", "account name shown in the authenticator app")
	cmd.Flags().StringVar(&qrFile, "qr-file", "", "write the provisioning QR code PNG to this file")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func newSetupOutOfBandCmd(c *cli, method entity.MFAMethod) *cobra.Command {
	var (
		userID      int64
		destination string
	)

	flag, usage := "phone", "E.164 phone number"
	if method == entity.MFAMethodEmail {
		flag, usage = "email", "email address"
	}

	cmd := &cobra.Command{
		Use:   method.String(),
		Short: "Enroll a " + usage + " for one-time codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMFA(cmd, func(ctx context.Context, mfa mfaService) error {
				out, err := mfa.SetupOutOfBand(ctx, usecase.SetupOutOfBandInput{
					UserID:      userID,
					Method:      method,
					Destination: destination,
				})
				if err != nil {
					return err
				}

				return c.print(struct {
					Method      string `json:"method"`
					Destination string `json:"destination"`
				}{out.Method.String(), out.Destination},
					field{"method", out.Method},
					field{"destination", out.Destination},
				)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&destination, flag, "", usage)
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired(flag)

	return cmd
}
