package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/tutor-api/internal/app"
	"github.com/Conceptual-Machines/tutor-api/internal/knowledge"
)

var replaceSource bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Embed .txt, .md and .pdf files into the knowledge base",
	Long: `Splits every .txt, .md and .pdf file under <dir> into overlapping chunks, embeds
them and stores them under the profile's knowledge source id.

With DATABASE_URL set the chunks go to postgres; otherwise they are written to
the KNOWLEDGE_SNAPSHOT file.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, profile, err := loadConfig()
	if err != nil {
		return err
	}

	kb, err := app.NewKnowledge(ctx, cfg, profile)
	if err != nil {
		return err
	}
	defer kb.Store.Close()

	if replaceSource {
		if err := kb.Store.Delete(ctx, kb.Source); err != nil {
			return fmt.Errorf("failed to clear knowledge source: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📚 Ingesting %s into %s (embedder: %s)\n", args[0], kb.Source, kb.Embedder.Name())

	report, err := knowledge.NewIngester(kb.Embedder, kb.Store, kb.Source).IngestDir(ctx, args[0])
	if err != nil {
		return err
	}

	total, err := kb.Store.Count(ctx, kb.Source)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ %d files, %d chunks added (%d chunks in source)\n", report.Files, report.Chunks, total)
	return nil
}
