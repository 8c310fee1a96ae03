package knowledge

import (
	"context"
	"log"
)

// Chunk is one embedded slice of a document
type Chunk struct {
	Document string    `json:"document"`
	Position int       `json:"position"`
	Content  string    `json:"content"`
	Vector   []float32 `json:"vector"`
}

// Store persists chunks grouped by knowledge source id
type Store interface {
	Add(ctx context.Context, source string, chunks []Chunk) error
	// All returns the chunks of a source in insertion order
	All(ctx context.Context, source string) ([]Chunk, error)
	Count(ctx context.Context, source string) (int, error)
	// Delete removes every chunk of a source
	Delete(ctx context.Context, source string) error
	Close() error
}

// NewStore returns a postgres store when databaseURL is set, else an in-memory store
// backed by an optional JSON snapshot file.
func NewStore(ctx context.Context, databaseURL, snapshotPath string) (Store, error) {
	if databaseURL != "" {
		log.Printf("📚 Knowledge store: postgres")
		return NewPostgresStore(ctx, databaseURL)
	}
	log.Printf("📚 Knowledge store: in-memory (snapshot: %q)", snapshotPath)
	return NewMemoryStore(snapshotPath)
}
