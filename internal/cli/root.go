// Package cli is the mfactl command tree.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/mfacore/internal/app"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/spf13/cobra"
)

// mfaService is the part of the MFA usecase the commands drive.
type mfaService interface {
	SetupAuthenticator(ctx context.Context, in usecase.SetupAuthenticatorInput) (*usecase.SetupAuthenticatorOutput, error)
	SetupOutOfBand(ctx context.Context, in usecase.SetupOutOfBandInput) (*usecase.SetupOutOfBandOutput, error)
	IssueCode(ctx context.Context, in usecase.IssueCodeInput) (*usecase.IssueCodeOutput, error)
	Enable(ctx context.Context, in usecase.CodeInput) error
	Disable(ctx context.Context, in usecase.CodeInput) error
	VerifyForLogin(ctx context.Context, in usecase.CodeInput) error
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
}

// session is one wired application for the duration of a command.
type session struct {
	mfa           mfaService
	db            *pgxpool.Pool
	correlationID string
	stop          func(ctx context.Context)
}

type opener func(ctx context.Context, opts app.Options) (*session, error)

func openApp(ctx context.Context, opts app.Options) (*session, error) {
	a, err := app.New(ctx, opts)
	if err != nil {
		return nil, err
	}

	s := &session{db: a.DB(), correlationID: a.NewCorrelationID(), stop: a.Stop}
	if !opts.DatabaseOnly {
		uc, err := a.MFA()
		if err != nil {
			a.Stop(ctx)
			return nil, err
		}
		s.mfa = uc
	}
	return s, nil
}

type cli struct {
	configPath string
	output     string
	open       opener
	stdout     io.Writer
	stderr     io.Writer
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(openApp, os.Stdout, os.Stderr)
}

func newRootCommand(open opener, out, errOut io.Writer) *cobra.Command {
	c := &cli{open: open, stdout: out, stderr: errOut}

	cmd := &cobra.Command{
		Use:           "mfactl",
		Short:         "Operate the MFA code engine",
		Long:          "mfactl enrolls users in two-factor authentication, issues and checks verification codes, and manages the schema.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $CONFIG_PATH or ./config/config.yaml)")
	cmd.PersistentFlags().StringVarP(&c.output, "output", "o", outputText, "output format: text or json")

	cmd.AddCommand(
		newMigrateCmd(c),
		newSetupCmd(c),
		newIssueCmd(c),
		newEnableCmd(c),
		newVerifyCmd(c),
		newDisableCmd(c),
		newStatusCmd(c),
		newCodeCmd(c),
	)

	return cmd
}

// withMFA runs fn with a wired MFA usecase and a per-invocation correlation id.
func (c *cli) withMFA(cmd *cobra.Command, fn func(ctx context.Context, mfa mfaService) error) error {
	s, err := c.open(cmd.Context(), app.Options{ConfigPath: c.configPath, LogOutput: c.stderr})
	if err != nil {
		return err
	}
	ctx := instrument.SetCorrelationID(cmd.Context(), s.correlationID)
	defer s.stop(context.WithoutCancel(ctx))

	return fn(ctx, s.mfa)
}

func (c *cli) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *pgxpool.Pool) error) error {
	s, err := c.open(cmd.Context(), app.Options{ConfigPath: c.configPath, DatabaseOnly: true, LogOutput: c.stderr})
	if err != nil {
		return err
	}
	ctx := instrument.SetCorrelationID(cmd.Context(), s.correlationID)
	defer s.stop(context.WithoutCancel(ctx))

	return fn(ctx, s.db)
}
