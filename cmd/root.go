package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apflow/resolve/internal/config"
	"github.com/apflow/resolve/internal/db"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Document and supplier identity resolution engine",
	Long:  "Deduplicates files and invoices by content hash and multi-factor similarity, and resolves vendor references to canonical supplier records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func storePool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("no database_url configured (set store.database_url or RESOLVE_STORE_DATABASE_URL)")
	}
	return db.Connect(ctx, cfg.Store.DatabaseURL)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
