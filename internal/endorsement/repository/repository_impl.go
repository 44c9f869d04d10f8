package repository

import (
	"context"

	"github.com/smallbiznis/canvass/internal/endorsement/domain"
	"gorm.io/gorm"
)

type Repository interface {
	ListByEndorser(ctx context.Context, db *gorm.DB, endorserID string) ([]*domain.Endorsement, error)
	CountByCandidate(ctx context.Context, db *gorm.DB, candidateID string) (int64, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) ListByEndorser(ctx context.Context, db *gorm.DB, endorserID string) ([]*domain.Endorsement, error) {
	var endorsements []*domain.Endorsement
	err := db.WithContext(ctx).
		Where("endorser_id = ?", endorserID).
		Order("created_at asc, id asc").
		Find(&endorsements).Error
	if err != nil {
		return nil, err
	}
	return endorsements, nil
}

func (r *repo) CountByCandidate(ctx context.Context, db *gorm.DB, candidateID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Endorsement{}).
		Where("candidate_id = ?", candidateID).
		Count(&count).Error
	return count, err
}
