package dto

import (
	"time"

	"github.com/noah-isme/edudefi-go-api/internal/models"
)

// Document describes a stored contract document.
type Document struct {
	BlobID    string    `json:"blob_id"`
	URL       string    `json:"url,omitempty"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	Store     string    `json:"store"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDocument maps the persisted model.
func NewDocument(model models.ContractDocument) Document {
	return Document{
		BlobID:    model.BlobID,
		URL:       model.URL,
		FileName:  model.FileName,
		SizeBytes: model.SizeBytes,
		Checksum:  model.Checksum,
		Store:     model.Store,
		CreatedAt: model.CreatedAt,
	}
}
