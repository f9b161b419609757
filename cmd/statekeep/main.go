package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/api"
	"github.com/cuemby/statekeep/pkg/auth"
	"github.com/cuemby/statekeep/pkg/config"
	"github.com/cuemby/statekeep/pkg/events"
	"github.com/cuemby/statekeep/pkg/instance"
	"github.com/cuemby/statekeep/pkg/log"
	"github.com/cuemby/statekeep/pkg/metrics"
	"github.com/cuemby/statekeep/pkg/types"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "statekeep",
	Short:   "statekeep - an in-memory authoritative game state engine",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("statekeep version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game state engine HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		addr, _ := cmd.Flags().GetString("addr")
		adminAPIKey, _ := cmd.Flags().GetString("admin-api-key")
		snapshotDir, _ := cmd.Flags().GetString("snapshot-dir")
		snapshotInterval, _ := cmd.Flags().GetDuration("snapshot-interval")
		idempotencyBound, _ := cmd.Flags().GetInt("idempotency-bound")
		enableShutdownEndpoint, _ := cmd.Flags().GetBool("enable-shutdown-endpoint")

		gameCfg, err := loadGameConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading game config: %w", err)
		}

		registry := algorithm.NewRegistry()
		if err := config.Validate(gameCfg, registry); err != nil {
			return fmt.Errorf("invalid game config: %w", err)
		}

		if adminAPIKey == "" {
			log.Warn("no --admin-api-key configured; admin transactions will be permanently rejected")
		}
		authz := auth.New(adminAPIKey)

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		reg, err := instance.New(instance.Config{
			IdempotencyBound: idempotencyBound,
			SnapshotDir:      snapshotDir,
			SnapshotInterval: snapshotInterval,
		}, gameCfg, registry, authz, broker)
		if err != nil {
			return fmt.Errorf("initializing instance registry: %w", err)
		}

		collector := metrics.NewCollector(reg)
		collector.Start()
		defer collector.Stop()

		srv := api.NewServer(reg, enableShutdownEndpoint)
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(addr); err != nil {
				errCh <- fmt.Errorf("API server error: %w", err)
			}
		}()

		log.WithComponent("cmd").Info().
			Str("addr", addr).
			Str("configId", gameCfg.ConfigID).
			Msg("statekeep serving")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("received shutdown signal")
		case <-srv.ShutdownCh():
			log.Info("received administrative shutdown request")
		case err := <-errCh:
			return err
		}

		if err := reg.Shutdown(); err != nil {
			return fmt.Errorf("flushing instances on shutdown: %w", err)
		}
		log.Info("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to the GameConfig YAML file (required)")
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "HTTP listen address")
	serveCmd.Flags().String("admin-api-key", "", "Admin bearer token for admin-only transactions")
	serveCmd.Flags().String("snapshot-dir", "./statekeep-data", "Directory holding one JSON file per instance")
	serveCmd.Flags().Duration("snapshot-interval", 30*time.Second, "Interval between periodic dirty-instance flushes")
	serveCmd.Flags().Int("idempotency-bound", 10000, "Maximum cached transaction responses per instance")
	serveCmd.Flags().Bool("enable-shutdown-endpoint", false, "Expose POST /__shutdown (E2E convenience only)")
	_ = serveCmd.MarkFlagRequired("config")
}

func loadGameConfig(path string) (*types.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg types.GameConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}
