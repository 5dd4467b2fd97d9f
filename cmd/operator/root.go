package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/her-chat/internal/config"
	"github.com/easeaico/her-chat/internal/storage"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "operator",
		Short:         "her-chat deployment and operations CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newValidateCmd(),
		newVersionCmd(),
		newPersonaCmd(),
		newSessionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "her-chat operator v%s\n", version)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the application tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run mode - no changes will be made")
				for _, name := range tableNames() {
					fmt.Fprintf(out, "  - Would migrate table %s\n", name)
				}
				return nil
			}

			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintln(out, "Migrating application tables...")
			if err := store.AutoMigrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "  ✓ Application tables migrated")
			fmt.Fprintln(out, "\nMigration completed successfully!")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be migrated without executing")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and database connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Validating configuration...")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.ConfigFile != "" {
				fmt.Fprintf(out, "  - Config file: %s\n", cfg.ConfigFile)
			}
			for _, item := range describeConfig(cfg) {
				fmt.Fprintln(out, item)
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out, "\nConfiguration validation failed!")
				return err
			}

			fmt.Fprintln(out, "\nTesting database connection...")
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			store, err := storage.NewStore(ctx, cfg.DatabaseURL)
			if err != nil {
				fmt.Fprintf(out, "  ✗ Failed to connect: %v\n", err)
				return err
			}
			defer store.Close()
			fmt.Fprintln(out, "  ✓ Database connection successful")

			fmt.Fprintln(out, "\nConfiguration validation completed!")
			return nil
		},
	}
}

// describeConfig renders one status line per setting with secrets masked.
func describeConfig(cfg config.Config) []string {
	items := []struct {
		name     string
		envVar   string
		value    string
		required bool
	}{
		{"Database URL", "DATABASE_URL", maskDatabaseURL(cfg.DatabaseURL), true},
		{"Listen Address", "LISTEN_ADDR", cfg.ListenAddr, true},
		{"OpenAI API Key", "OPENAI_API_KEY", maskSecret(cfg.OpenAIAPIKey), false},
		{"OpenAI Base URL", "OPENAI_BASE_URL", cfg.OpenAIBaseURL, false},
		{"OpenAI Model", "OPENAI_MODEL", cfg.OpenAIModel, false},
		{"Log Level", "LOG_LEVEL", cfg.LogLevel, false},
	}

	lines := make([]string, 0, len(items)+3)
	for _, item := range items {
		switch {
		case item.value != "":
			lines = append(lines, fmt.Sprintf("  ✓ %s (%s): %s", item.name, item.envVar, item.value))
		case item.required:
			lines = append(lines, fmt.Sprintf("  ✗ %s (%s): NOT SET (required)", item.name, item.envVar))
		default:
			lines = append(lines, fmt.Sprintf("  - %s (%s): not set (optional, will use default)", item.name, item.envVar))
		}
	}
	lines = append(lines,
		fmt.Sprintf("  ✓ Request Timeout (REQUEST_TIMEOUT): %s", cfg.RequestTimeout),
		fmt.Sprintf("  ✓ History Limit (HISTORY_LIMIT): %d", cfg.HistoryLimit),
		fmt.Sprintf("  ✓ Delivery Delay (DELIVERY_DELAY): %s", cfg.DeliveryDelay),
	)
	return lines
}

func openStore(ctx context.Context) (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return storage.NewStore(ctx, cfg.DatabaseURL)
}

func tableNames() []string {
	models := storage.Models()
	names := make([]string, 0, len(models))
	for _, model := range models {
		if tabler, ok := model.(interface{ TableName() string }); ok {
			names = append(names, tabler.TableName())
		}
	}
	return names
}
