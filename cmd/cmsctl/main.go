// Command cmsctl runs one-off maintenance tasks against the CMS database.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/config"
	"github.com/mrashed98/blueprint-cms/internal/app"
	"github.com/mrashed98/blueprint-cms/internal/core/auth"
	"github.com/mrashed98/blueprint-cms/internal/logging"
	"github.com/mrashed98/blueprint-cms/internal/storage/postgres"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newApp builds the application. The caller must defer a.Close().
func newApp() (*app.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func withDB(fn func(db *postgres.Client) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

var rootCmd = &cobra.Command{
	Use:          "cmsctl",
	Short:        "Blueprint CMS maintenance",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *postgres.Client) error {
			if err := postgres.MigrateUp(db.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *postgres.Client) error {
			status, err := postgres.CheckMigrationStatus(db.DB)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %d\n", status.Version)
			fmt.Fprintf(out, "Latest:  %d\n", status.Latest)
			fmt.Fprintf(out, "Dirty:   %t\n", status.Dirty)
			if !status.UpToDate() {
				return fmt.Errorf("schema is not up to date")
			}
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the built-in blueprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Seed(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created:   %s\n", strings.Join(res.Created, ", "))
		fmt.Fprintf(out, "Refreshed: %s\n", strings.Join(res.Refreshed, ", "))
		fmt.Fprintf(out, "Skipped:   %s\n", strings.Join(res.Skipped, ", "))
		return nil
	},
}

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account or promote an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := firstNonEmpty(adminEmail, os.Getenv("ADMIN_EMAIL"))
		password := firstNonEmpty(adminPassword, os.Getenv("ADMIN_PASSWORD"))
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password (or ADMIN_EMAIL and ADMIN_PASSWORD) are required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Auth.EnsureAdmin(cmd.Context(), &auth.RegisterRequest{
			Email:    email,
			Password: password,
			Name:     adminName,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Admin ready: %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "display name")

	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd, createAdminCmd)
}
