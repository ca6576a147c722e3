package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edudefi-go-api/internal/models"
)

// ContractDocumentRepository persists metadata about uploaded contract documents.
type ContractDocumentRepository interface {
	Create(ctx context.Context, document *models.ContractDocument) error
	GetByBlobID(ctx context.Context, blobID string) (models.ContractDocument, error)
}

type contractDocumentRepository struct {
	db *gorm.DB
}

// NewContractDocumentRepository constructs a repository for contract documents.
func NewContractDocumentRepository(db *gorm.DB) ContractDocumentRepository {
	return &contractDocumentRepository{db: db}
}

// Create stores document unless its blob is already known, in which case document is filled
// with the existing row.
func (r *contractDocumentRepository) Create(ctx context.Context, document *models.ContractDocument) error {
	return r.db.WithContext(ctx).
		Where(models.ContractDocument{BlobID: document.BlobID}).
		FirstOrCreate(document).Error
}

func (r *contractDocumentRepository) GetByBlobID(ctx context.Context, blobID string) (models.ContractDocument, error) {
	var document models.ContractDocument
	if err := r.db.WithContext(ctx).First(&document, "blob_id = ?", blobID).Error; err != nil {
		return models.ContractDocument{}, err
	}
	return document, nil
}
