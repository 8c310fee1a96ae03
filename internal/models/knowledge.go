package models

import (
	"time"

	"gorm.io/gorm"
)

// KnowledgeChunk is a persisted, embedded slice of course material.
type KnowledgeChunk struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SourceID string `gorm:"index;not null" json:"source_id"` // knowledge_source_id of the subject profile
	Document string `gorm:"index" json:"document"`           // originating file name
	Position int    `json:"position"`                        // chunk ordinal within the document
	Content  string `gorm:"type:text;not null" json:"content"`
	Vector   string `gorm:"type:text;not null" json:"-"` // JSON-encoded []float32
}

// TableName overrides the gorm default.
func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}
