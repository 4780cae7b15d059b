package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apflow/resolve/internal/dedup"
	"github.com/apflow/resolve/internal/model"
)

var (
	invoiceCheckTenant   string
	invoiceCheckFile     string
	invoiceCheckFileID   string
	invoiceCheckRegister bool
)

var invoiceCheckCmd = &cobra.Command{
	Use:   "invoicecheck",
	Short: "Classify an extracted invoice against prior invoices",
	Long:  "Reads extracted invoice fields as JSON from a file (or stdin) and classifies the invoice as an exact, likely, possible or unique duplicate within the tenant.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var in io.Reader = os.Stdin
		if invoiceCheckFile != "" {
			f, err := os.Open(invoiceCheckFile)
			if err != nil {
				return eris.Wrapf(err, "open %s", invoiceCheckFile)
			}
			defer f.Close()
			in = f
		}

		var fields model.ExtractedFields
		if err := json.NewDecoder(in).Decode(&fields); err != nil {
			return eris.Wrap(err, "decode extracted fields")
		}

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		detector := dedup.NewInvoiceDetector(dedup.NewPostgresStore(pool, cfg.Matching), cfg.Matching)
		verdict, err := detector.Check(ctx, invoiceCheckTenant, fields)
		if err != nil {
			return err
		}

		if invoiceCheckRegister {
			extraction, err := detector.RegisterExtraction(ctx, invoiceCheckTenant, invoiceCheckFileID, fields, verdict)
			if err != nil {
				return err
			}
			zap.L().Info("extraction registered",
				zap.String("extraction_id", extraction.ID),
				zap.String("duplicate_type", verdict.DuplicateType),
			)
		}

		out, _ := json.MarshalIndent(verdict, "", "  ")
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	invoiceCheckCmd.Flags().StringVar(&invoiceCheckTenant, "tenant", "", "tenant ID (required)")
	invoiceCheckCmd.Flags().StringVar(&invoiceCheckFile, "file", "", "JSON input file (default stdin)")
	invoiceCheckCmd.Flags().StringVar(&invoiceCheckFileID, "file-id", "", "file row to link the extraction to")
	invoiceCheckCmd.Flags().BoolVar(&invoiceCheckRegister, "register", false, "persist the extraction after classification")
	_ = invoiceCheckCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(invoiceCheckCmd)
}
