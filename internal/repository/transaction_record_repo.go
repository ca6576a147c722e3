package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/edudefi-go-api/internal/models"
)

// TransactionRecordFilter narrows record listings.
type TransactionRecordFilter struct {
	Sender string
	Action string
	Limit  int
}

// TransactionRecordRepository stores confirmed transactions.
type TransactionRecordRepository interface {
	Upsert(ctx context.Context, record *models.TransactionRecord) error
	GetByDigest(ctx context.Context, digest string) (models.TransactionRecord, error)
	List(ctx context.Context, filter TransactionRecordFilter) ([]models.TransactionRecord, error)
}

type transactionRecordRepository struct {
	db *gorm.DB
}

// NewTransactionRecordRepository constructs the repository implementation.
func NewTransactionRecordRepository(db *gorm.DB) TransactionRecordRepository {
	return &transactionRecordRepository{db: db}
}

// Upsert stores record keyed by digest; re-confirming a digest refreshes the stored outcome.
func (r *transactionRecordRepository) Upsert(ctx context.Context, record *models.TransactionRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "digest"}},
		DoUpdates: clause.AssignmentColumns([]string{"created_object_id", "matched_rule", "status", "metadata"}),
	}).Create(record).Error
}

func (r *transactionRecordRepository) GetByDigest(ctx context.Context, digest string) (models.TransactionRecord, error) {
	var record models.TransactionRecord
	if err := r.db.WithContext(ctx).First(&record, "digest = ?", digest).Error; err != nil {
		return models.TransactionRecord{}, err
	}
	return record, nil
}

func (r *transactionRecordRepository) List(ctx context.Context, filter TransactionRecordFilter) ([]models.TransactionRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionRecord{})
	if filter.Sender != "" {
		query = query.Where("sender = ?", filter.Sender)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var records []models.TransactionRecord
	if err := query.Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
