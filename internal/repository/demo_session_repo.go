package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edudefi-go-api/internal/models"
)

// DemoSessionRepository persists lifecycle walkthrough progress.
type DemoSessionRepository interface {
	Create(ctx context.Context, session *models.DemoSession) error
	GetByID(ctx context.Context, id string) (models.DemoSession, error)
	LatestForWallet(ctx context.Context, wallet string) (models.DemoSession, error)
	Save(ctx context.Context, session *models.DemoSession) error
}

type demoSessionRepository struct {
	db *gorm.DB
}

// NewDemoSessionRepository constructs a repository for demo sessions.
func NewDemoSessionRepository(db *gorm.DB) DemoSessionRepository {
	return &demoSessionRepository{db: db}
}

func (r *demoSessionRepository) Create(ctx context.Context, session *models.DemoSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *demoSessionRepository) GetByID(ctx context.Context, id string) (models.DemoSession, error) {
	var session models.DemoSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return models.DemoSession{}, err
	}
	return session, nil
}

func (r *demoSessionRepository) LatestForWallet(ctx context.Context, wallet string) (models.DemoSession, error) {
	var session models.DemoSession
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return models.DemoSession{}, err
	}
	return session, nil
}

func (r *demoSessionRepository) Save(ctx context.Context, session *models.DemoSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}
