package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/routine"
	"github.com/meikuraledutech/routine/api"
	"github.com/meikuraledutech/routine/internal/config"
	"github.com/meikuraledutech/routine/memory"
	"github.com/meikuraledutech/routine/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool
	force      bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "routine-server",
	Short: "Routine graph storage and editing server",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger, err = newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the database schema",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the routine tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store routine.Store) error {
			if err := store.CreateSchema(cmd.Context()); err != nil {
				return fmt.Errorf("schema: %w", err)
			}
			logger.Info("schema created")
			return nil
		})
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the routine tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store routine.Store) error {
			if err := store.DropSchema(cmd.Context()); err != nil {
				return fmt.Errorf("schema: %w", err)
			}
			logger.Info("schema dropped")
			return nil
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to --config",
	// Runs before the file exists, so it skips the root's config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "routine.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	configInitCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	schemaCmd.AddCommand(schemaCreateCmd, schemaDropCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(serveCmd, schemaCmd, configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(routine.Store) error) error {
	if cfg.Store.Driver == config.StoreMemory {
		return fn(memory.New())
	}
	pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	return fn(postgres.New(pool))
}

func serve(ctx context.Context) error {
	return withStore(ctx, func(store routine.Store) error {
		if cfg.Store.AutoMigrate {
			if err := store.CreateSchema(ctx); err != nil {
				return fmt.Errorf("schema: %w", err)
			}
		}
		app := api.New(store, api.Options{
			Logger:      logger,
			MaxSessions: cfg.Sessions.MaxOpen,
			SessionTTL:  cfg.GetIdleTTL(),
		})
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Driver))
		return app.Listen(cfg.Server.Addr)
	})
}
