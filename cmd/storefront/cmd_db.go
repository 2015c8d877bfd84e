package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/internal/bootstrap"
	"github.com/shashiranjanraj/storefront/pkg/migration"

	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

func migrator() (*migration.Runner, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	db, err := bootstrap.OpenDB()
	if err != nil {
		return nil, err
	}
	return migration.New(db), nil
}

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := migrator()
		if err != nil {
			return err
		}
		fmt.Println("Running migrations…")
		return r.Run()
	},
}

// storefront migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := migrator()
		if err != nil {
			return err
		}
		fmt.Println("Rolling back last batch…")
		return r.Rollback()
	},
}

// storefront migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := migrator()
		if err != nil {
			return err
		}
		return r.Status()
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and sample catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		if config.StoreDriver() == "memory" {
			fmt.Println("STORE_DRIVER=memory seeds itself on every start; nothing to do.")
			return nil
		}
		// OpenStore migrates the database first so seeding a fresh one works.
		store, _, err := bootstrap.OpenStore(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("Running seeders…")
		return seeders.RunAll(cmd.Context(), store, os.Stdout)
	},
}
