package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/canvass/internal/candidate/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, candidateID string) (*domain.Candidate, error)
	GetAggregate(ctx context.Context, db *gorm.DB, candidateID string) (*domain.CandidateAggregate, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, candidateID string) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := db.WithContext(ctx).Where("id = ?", candidateID).First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &candidate, nil
}

func (r *repo) GetAggregate(ctx context.Context, db *gorm.DB, candidateID string) (*domain.CandidateAggregate, error) {
	var aggregate domain.CandidateAggregate
	err := db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&aggregate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &aggregate, nil
}
