// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/store"
)

// NewMigrateCmd creates the migrate subcommand tree.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back and inspect schema migrations against PostgreSQL.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

// openMigrator builds a Migrator from the configured database URL.
func openMigrator() (*store.Migrator, error) {
	databaseURL := os.Getenv("GATEWARDEN_DATABASE_URL")
	if databaseURL == "" {
		return nil, oops.Code("CONFIG_MISSING_DATABASE").
			Errorf("GATEWARDEN_DATABASE_URL environment variable is required")
	}
	return store.NewMigrator(databaseURL)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := openMigrator()
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck // best-effort cleanup

			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("Schema is up to date")
				return nil
			}

			cmd.Printf("Applying %d migration(s)...\n", len(pending))
			if err := migrator.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Long: `Roll back every migration, dropping all tables and data.
Requires --yes to confirm.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").
					Errorf("migrate down drops all data; pass --yes to confirm")
			}

			migrator, err := openMigrator()
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck // best-effort cleanup

			if err := migrator.Down(); err != nil {
				return err
			}
			cmd.Println("All migrations rolled back")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive rollback")

	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := openMigrator()
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck // best-effort cleanup

			current, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			cmd.Printf("Current version: %d\n", current)
			if dirty {
				cmd.Println("WARNING: schema is dirty; a migration failed partway")
			}

			applied, err := migrator.AppliedMigrations()
			if err != nil {
				return err
			}
			for _, v := range applied {
				name, nameErr := store.MigrationName(v)
				if nameErr != nil {
					return nameErr
				}
				cmd.Printf("  applied  %s\n", name)
			}

			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}
			for _, v := range pending {
				name, nameErr := store.MigrationName(v)
				if nameErr != nil {
					return nameErr
				}
				cmd.Printf("  pending  %s\n", name)
			}
			return nil
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Set the recorded schema version directly. Use only to recover from a
dirty state after fixing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return oops.Code("INVALID_VERSION").
					Errorf("version must be a non-negative integer, got %q", args[0])
			}

			migrator, err := openMigrator()
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck // best-effort cleanup

			if err := migrator.Force(v); err != nil {
				return err
			}
			cmd.Printf("Forced schema version to %d\n", v)
			return nil
		},
	}
}
