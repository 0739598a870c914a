package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shopstream.app/sync/common/id"
	"shopstream.app/sync/common/logger"
	"shopstream.app/sync/core/config"
	"shopstream.app/sync/core/db"
	"shopstream.app/sync/internal/segment"
	"shopstream.app/sync/internal/service"
	"shopstream.app/sync/internal/store"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "syncctl",
	Short: "ShopStream sync CLI",
	Long: `syncctl drives the ShopStream sync engine from the command line:
one-shot sync runs, failure ledger triage, and CSV bulk loading.

Runs started here skip the Redis run lock; do not point syncctl at a
database a server or worker is actively syncing.`,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(failuresCmd())
	rootCmd.AddCommand(loadCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

// env holds everything a subcommand needs once the backends are up.
type env struct {
	cfg      config.Config
	stores   *store.Stores
	services *service.Services
}

// withEnv loads config, connects the database, and hands a wired environment
// to fn. dryRun forces the dispatcher into dry-run mode regardless of the
// configured write key.
func withEnv(ctx context.Context, dryRun bool, fn func(ctx context.Context, e env) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg)

	if err := id.Init(3); err != nil {
		return fmt.Errorf("init id generator: %w", err)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	if dryRun {
		cfg.Segment.WriteKey = ""
	}

	stores := store.NewStores(database.Pool())
	services := service.NewServices(service.ServicesConfig{
		Stores: stores,
		Sender: segment.NewClient(cfg.Segment),
		Locks:  nil,
		Sync:   cfg.Sync,
	})

	return fn(ctx, env{cfg: cfg, stores: stores, services: services})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
