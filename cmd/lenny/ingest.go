package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/config"
	"github.com/uiaudit/lenny/internal/domain"
	ingestuc "github.com/uiaudit/lenny/internal/usecase/ingest"
)

var ingestFlags struct {
	kind  string
	file  string
	reset bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed and store content records from a JSONL file",
	Long: `Reads one JSON record per line, embeds each record's title and
description (app) or content (kb), and upserts it into the matching index.

  lenny ingest --kind app --file scraped.jsonl
  lenny ingest --kind kb --file articles.jsonl --reset`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runIngest(ctx, cmd)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.kind, "kind", string(domain.CorpusApp), "target index: app or kb")
	ingestCmd.Flags().StringVar(&ingestFlags.file, "file", "", "path to a JSONL file of records")
	ingestCmd.Flags().BoolVar(&ingestFlags.reset, "reset", false, "drop the index and its records before loading")
	_ = ingestCmd.MarkFlagRequired("file")
}

func runIngest(ctx context.Context, cmd *cobra.Command) error {
	corpus := domain.Corpus(ingestFlags.kind)
	if !corpus.IsValid() {
		return fmt.Errorf("--kind must be %q or %q, got %q", domain.CorpusApp, domain.CorpusKB, ingestFlags.kind)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if missing := a.cfg.Credentials().Missing(); len(missing) > 0 {
		return domain.NewMissingCredentials(missing...)
	}

	f, err := os.Open(filepath.Clean(ingestFlags.file))
	if err != nil {
		return fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	records, err := ingestuc.LoadJSONL(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", ingestFlags.file, err)
	}

	_, embedder := a.buildEmbedder()
	svc, err := ingestuc.New(a.contentRepo(), embedder, ingestOptions(a.cfg), a.logger)
	if err != nil {
		return err
	}
	defer svc.Release()

	if ingestFlags.reset {
		if err := svc.Reset(ctx, corpus); err != nil {
			return err
		}
	}

	summary, err := svc.Ingest(ctx, corpus, records)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ingest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d records, %d indexed, %d failed\n",
		corpus, summary.Total, summary.Indexed, len(summary.Failed))
	for _, item := range summary.Failed {
		a.logger.Debug("Record not indexed", zap.String("id", item.ID), zap.Error(item.Err))
		fmt.Fprintf(out, "  %s: %v\n", item.ID, item.Err)
	}

	if err != nil {
		return err
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d records failed", len(summary.Failed), summary.Total)
	}
	return nil
}

func ingestOptions(cfg config.Config) ingestuc.Options {
	return ingestuc.Options{
		BatchSize: cfg.Ingest.BatchSize,
		Workers:   cfg.Ingest.Workers,
	}
}
