package knowledge

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/tutor-api/internal/logger"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
	// DefaultBatchSize stays within the 10-input limit of DashScope embeddings
	DefaultBatchSize   = 10
	defaultConcurrency = 4
)

// documentReader returns the plain text of one file
type documentReader func(path string) (string, error)

// documentReaders are keyed by lower-case file extension
var documentReaders = map[string]documentReader{
	".txt": readPlain,
	".md":  readPlain,
	".pdf": readPDF,
}

// Ingester splits documents into chunks, embeds them and stores them under one source
type Ingester struct {
	embedder    Embedder
	store       Store
	source      string
	chunkSize   int
	overlap     int
	batchSize   int
	concurrency int
	readers     map[string]documentReader
}

// IngestReport summarizes one ingestion run
type IngestReport struct {
	Files  int `json:"files"`
	Chunks int `json:"chunks"`
}

// NewIngester creates an ingester with the default chunking parameters
func NewIngester(embedder Embedder, store Store, source string) *Ingester {
	return &Ingester{
		embedder:    embedder,
		store:       store,
		source:      source,
		chunkSize:   DefaultChunkSize,
		overlap:     DefaultChunkOverlap,
		batchSize:   DefaultBatchSize,
		concurrency: defaultConcurrency,
		readers:     maps.Clone(documentReaders),
	}
}

// IngestDir ingests every .txt, .md and .pdf file under dir. Files without
// extractable text, such as scanned PDFs, are skipped.
func (in *Ingester) IngestDir(ctx context.Context, dir string) (IngestReport, error) {
	var report IngestReport
	var chunks []Chunk

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		read, ok := in.readers[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		data, err := read(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		if strings.TrimSpace(data) == "" {
			logger.Warn("Document has no text, skipping", logger.Fields{
				"component": "knowledge",
				"document":  rel,
			})
			return nil
		}
		for n, text := range SplitText(data, in.chunkSize, in.overlap) {
			chunks = append(chunks, Chunk{Document: rel, Position: n, Content: text})
		}
		report.Files++
		return nil
	})
	if err != nil {
		return report, err
	}

	if err := in.embed(ctx, chunks); err != nil {
		return report, err
	}
	if err := in.store.Add(ctx, in.source, chunks); err != nil {
		return report, fmt.Errorf("failed to store chunks: %w", err)
	}

	report.Chunks = len(chunks)
	logger.Info("Knowledge ingested", logger.Fields{
		"component": "knowledge",
		"source":    in.source,
		"files":     report.Files,
		"chunks":    report.Chunks,
		"embedder":  in.embedder.Name(),
	})
	return report, nil
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readPDF extracts the text layer of a PDF. The parser panics on some malformed
// content streams, so panics are reported as errors.
func readPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", err
	}
	return b.String(), nil
}

// embed fills in chunk vectors, running batches concurrently
func (in *Ingester) embed(ctx context.Context, chunks []Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)

	for start := 0; start < len(chunks); start += in.batchSize {
		end := min(start+in.batchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Content
			}

			vectors, err := in.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Vector = vectors[i]
			}
			return nil
		})
	}

	return g.Wait()
}

// SplitText cuts text into pieces of at most size runes, each overlapping the previous
// one by overlap runes. Blank pieces are dropped.
func SplitText(text string, size, overlap int) []string {
	runes := []rune(strings.ReplaceAll(text, "\r\n", "\n"))
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	step := size - overlap

	var pieces []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return pieces
}
