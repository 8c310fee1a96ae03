package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Conceptual-Machines/tutor-api/internal/models"
)

const insertBatchSize = 100

// PostgresStore persists chunks in the knowledge_chunks table
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects and migrates the chunk table
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newPostgresStoreWithDB(ctx, db)
}

func newPostgresStoreWithDB(ctx context.Context, db *gorm.DB) (*PostgresStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&models.KnowledgeChunk{}); err != nil {
		return nil, fmt.Errorf("failed to migrate knowledge_chunks: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Add(ctx context.Context, source string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	records := make([]models.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		vector, err := json.Marshal(c.Vector)
		if err != nil {
			return fmt.Errorf("failed to encode vector: %w", err)
		}
		records[i] = models.KnowledgeChunk{
			SourceID: source,
			Document: c.Document,
			Position: c.Position,
			Content:  c.Content,
			Vector:   string(vector),
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(records, insertBatchSize).Error
	})
}

func (s *PostgresStore) All(ctx context.Context, source string) ([]Chunk, error) {
	var records []models.KnowledgeChunk
	if err := s.db.WithContext(ctx).Where("source_id = ?", source).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	chunks := make([]Chunk, 0, len(records))
	for _, r := range records {
		var vector []float32
		if err := json.Unmarshal([]byte(r.Vector), &vector); err != nil {
			return nil, fmt.Errorf("failed to decode vector of chunk %d: %w", r.ID, err)
		}
		chunks = append(chunks, Chunk{
			Document: r.Document,
			Position: r.Position,
			Content:  r.Content,
			Vector:   vector,
		})
	}
	return chunks, nil
}

func (s *PostgresStore) Count(ctx context.Context, source string) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.KnowledgeChunk{}).Where("source_id = ?", source).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) Delete(ctx context.Context, source string) error {
	return s.db.WithContext(ctx).Unscoped().Where("source_id = ?", source).Delete(&models.KnowledgeChunk{}).Error
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
