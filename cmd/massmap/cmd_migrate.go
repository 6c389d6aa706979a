package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/massmap/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the map store schema",
	Long: `Applies or inspects the embedded schema migrations.

Examples:
  massmap migrate up --db maps.db
  massmap migrate status --db maps.db
  massmap migrate force 1 --db maps.db`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, store *db.DB, args []string) error {
		fsys, err := db.MigrationsFS()
		if err != nil {
			return err
		}
		if err := store.MigrateUp(fsys); err != nil {
			return err
		}
		return printStatus(cmd, store)
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back one migration",
	Args:  cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, store *db.DB, args []string) error {
		fsys, err := db.MigrationsFS()
		if err != nil {
			return err
		}
		if err := store.MigrateDown(fsys); err != nil {
			return err
		}
		return printStatus(cmd, store)
	}),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current and latest schema versions",
	Args:  cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, store *db.DB, args []string) error {
		return printStatus(cmd, store)
	}),
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version <version>",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store *db.DB, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		fsys, err := db.MigrationsFS()
		if err != nil {
			return err
		}
		if err := store.MigrateTo(fsys, uint(v)); err != nil {
			return err
		}
		return printStatus(cmd, store)
	}),
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Long:  "Clears a dirty flag after a failed migration has been repaired by hand.",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store *db.DB, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		fsys, err := db.MigrationsFS()
		if err != nil {
			return err
		}
		if err := store.MigrateForce(fsys, v); err != nil {
			return err
		}
		return printStatus(cmd, store)
	}),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd, migrateVersionCmd, migrateForceCmd)
}

// withStore opens --db without migrating it and closes it afterwards.
func withStore(fn func(*cobra.Command, *db.DB, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if dbPath == "" {
			return errors.New("--db is required")
		}
		store, err := db.OpenDB(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}

func printStatus(cmd *cobra.Command, store *db.DB) error {
	fsys, err := db.MigrationsFS()
	if err != nil {
		return err
	}
	status, err := store.GetMigrationStatus(fsys)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "current version: %d\n", status.Current)
	fmt.Fprintf(out, "latest version:  %d\n", status.Latest)
	if status.Dirty {
		fmt.Fprintln(out, "state: dirty (repair the schema, then run 'massmap migrate force <version>')")
	} else if n := status.Pending(); n > 0 {
		fmt.Fprintf(out, "state: %d migration(s) pending, run 'massmap migrate up'\n", n)
	} else {
		fmt.Fprintln(out, "state: up to date")
	}
	return nil
}
