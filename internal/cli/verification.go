package cli

import (
	"context"
	"time"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/spf13/cobra"
)

func newIssueCmd(c *cli) *cobra.Command {
	var (
		userID  int64
		purpose string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Send a one-time code to the user's phone or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMFA(cmd, func(ctx context.Context, mfa mfaService) error {
				out, err := mfa.IssueCode(ctx, usecase.IssueCodeInput{
					UserID:  userID,
					Purpose: entity.CodePurposeFromString(purpose),
				})
				if err != nil {
					return err
				}

				return c.print(struct {
					CodeID      int64     `json:"code_id"`
					Method      string    `json:"method"`
					Destination string    `json:"destination"`
					ExpiresAt   time.Time `json:"expires_at"`
				}{out.CodeID, out.Method.String(), out.Destination, out.ExpiresAt},
					field{"code id", out.CodeID},
					field{"sent to", out.Destination},
					field{"expires at", out.ExpiresAt.Format(time.RFC3339)},
				)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&purpose, "purpose", entity.CodePurposeLogin.String(), "login, enable2fa or disable2fa")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

type codeAction func(mfa mfaService) func(ctx context.Context, in usecase.CodeInput) error

// newCodeActionCmd builds the commands that submit a code for one user.
func newCodeActionCmd(c *cli, use, short, done string, action codeAction) *cobra.Command {
	var in usecase.CodeInput

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMFA(cmd, func(ctx context.Context, mfa mfaService) error {
				if err := action(mfa)(ctx, in); err != nil {
					return err
				}
				return c.print(map[string]string{"result": done}, field{"result", done})
			})
		},
	}

	cmd.Flags().Int64Var(&in.UserID, "user", 0, "user id")
	cmd.Flags().StringVar(&in.Code, "code", "", "verification code")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newEnableCmd(c *cli) *cobra.Command {
	return newCodeActionCmd(c, "enable", "Confirm an enrollment and turn MFA on", "enabled",
		func(mfa mfaService) func(context.Context, usecase.CodeInput) error { return mfa.Enable })
}

func newVerifyCmd(c *cli) *cobra.Command {
	return newCodeActionCmd(c, "verify", "Check a sign-in code", "accepted",
		func(mfa mfaService) func(context.Context, usecase.CodeInput) error { return mfa.VerifyForLogin })
}

func newDisableCmd(c *cli) *cobra.Command {
	return newCodeActionCmd(c, "disable", "Turn MFA off, keeping the enrollment", "disabled",
		func(mfa mfaService) func(context.Context, usecase.CodeInput) error { return mfa.Disable })
}

func newStatusCmd(c *cli) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a user's MFA enrollment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMFA(cmd, func(ctx context.Context, mfa mfaService) error {
				out, err := mfa.Status(ctx, usecase.StatusInput{UserID: userID})
				if err != nil {
					return err
				}

				offered := make([]string, 0, len(out.Offered))
				for _, m := range out.Offered {
					offered = append(offered, m.String())
				}

				view := struct {
					Configured  bool       `json:"configured"`
					Method      string     `json:"method,omitempty"`
					Destination string     `json:"destination,omitempty"`
					Verified    bool       `json:"verified"`
					Enabled     bool       `json:"enabled"`
					LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
					Offered     []string   `json:"offered"`
				}{out.Configured, "", out.Destination, out.IsVerified, out.IsEnabled, out.LastUsedAt, offered}
				if out.Configured {
					view.Method = out.Method.String()
				}

				lastUsed := "never"
				if out.LastUsedAt != nil {
					lastUsed = out.LastUsedAt.Format(time.RFC3339)
				}

				return c.print(view,
					field{"configured", out.Configured},
					field{"method", view.Method},
					field{"destination", out.Destination},
					field{"verified", out.IsVerified},
					field{"enabled", out.IsEnabled},
					field{"last used", lastUsed},
					field{"offered", offered},
				)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
