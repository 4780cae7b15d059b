package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/apflow/resolve/internal/dedup"
)

var (
	fileCheckTenant   string
	fileCheckSource   string
	fileCheckSourceID string
)

var fileCheckCmd = &cobra.Command{
	Use:   "filecheck <path>",
	Short: "Check a file for exact duplicates",
	Long:  "Hashes the file and checks it against the tenant's prior files; new files are registered.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		content, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		detector := dedup.NewFileDetector(dedup.NewPostgresStore(pool, cfg.Matching))
		verdict, err := detector.Check(ctx, dedup.FileIngestionRequest{
			TenantID: fileCheckTenant,
			Content:  content,
			Source:   fileCheckSource,
			SourceID: fileCheckSourceID,
		})
		if err != nil {
			return err
		}

		out, _ := json.MarshalIndent(verdict, "", "  ")
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	fileCheckCmd.Flags().StringVar(&fileCheckTenant, "tenant", "", "tenant ID (required)")
	fileCheckCmd.Flags().StringVar(&fileCheckSource, "source", "user_upload", "ingestion source")
	fileCheckCmd.Flags().StringVar(&fileCheckSourceID, "source-id", "", "external source reference")
	_ = fileCheckCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(fileCheckCmd)
}
