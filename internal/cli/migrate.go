package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/mfacore/internal/identity"
	"github.com/shandysiswandi/mfacore/internal/pkg/dbmigrate"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the MFA database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withDB(cmd, func(ctx context.Context, db *pgxpool.Pool) error {
					version, err := dbmigrate.Up(ctx, db, identity.Migrations)
					if err != nil {
						return err
					}
					return c.print(map[string]int64{"version": version}, field{"version", version})
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withDB(cmd, func(ctx context.Context, db *pgxpool.Pool) error {
					version, err := dbmigrate.Down(ctx, db, identity.Migrations)
					if err != nil {
						return err
					}
					return c.print(map[string]int64{"version": version}, field{"version", version})
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Log the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withDB(cmd, func(ctx context.Context, db *pgxpool.Pool) error {
					if err := dbmigrate.Status(ctx, db, identity.Migrations); err != nil {
						return fmt.Errorf("migration status: %w", err)
					}
					return nil
				})
			},
		},
	)

	return cmd
}
