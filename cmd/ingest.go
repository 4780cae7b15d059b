package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/apflow/resolve/internal/supplier"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Batch-ingest supplier observations",
	Long:  "Reads supplier ingestion requests as JSON lines from a file (or stdin) and resolves each against the supplier registry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var in io.Reader = os.Stdin
		if ingestFile != "" {
			f, err := os.Open(ingestFile)
			if err != nil {
				return eris.Wrapf(err, "open %s", ingestFile)
			}
			defer f.Close()
			in = f
		}

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		orch := supplier.NewOrchestrator(pool, cfg.Matching)

		var created, matched, skipped, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Ingest.MaxConcurrent)

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}

			var req supplier.IngestionRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				zap.L().Warn("skipping malformed line", zap.Int("line", line), zap.Error(err))
				failed.Add(1)
				continue
			}

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				result := orch.Ingest(gctx, req)
				switch result.Action {
				case supplier.ActionCreated:
					created.Add(1)
				case supplier.ActionMatched:
					matched.Add(1)
				case supplier.ActionSkipped:
					skipped.Add(1)
				default:
					failed.Add(1)
				}

				out, _ := json.Marshal(result)
				cmd.Println(string(out))
				return nil
			})
		}
		if err := scanner.Err(); err != nil {
			return eris.Wrap(err, "read input")
		}

		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("ingestion complete",
			zap.Int64("created", created.Load()),
			zap.Int64("matched", matched.Load()),
			zap.Int64("skipped", skipped.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "JSON-lines input file (default stdin)")
	rootCmd.AddCommand(ingestCmd)
}
