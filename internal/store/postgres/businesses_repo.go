package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tagbanwa/salontime-backend/internal/domain"
	"github.com/tagbanwa/salontime-backend/internal/store"
)

type BusinessRepo struct {
	db *bun.DB
}

func NewBusinessRepo(db *bun.DB) *BusinessRepo {
	return &BusinessRepo{db: db}
}

func (r *BusinessRepo) GetBusiness(ctx context.Context, id uuid.UUID) (domain.Business, error) {
	var b domain.Business
	err := r.db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Business{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Business{}, err
	}
	return b, nil
}

func (r *BusinessRepo) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var s domain.Service
	err := r.db.NewSelect().
		Model(&s).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Service{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Service{}, err
	}
	return s, nil
}

// UpdateRating writes the recomputed aggregate. Last write wins: the projector
// recomputes from scratch, so a racing writer leaves at most a brief staleness
// window, never drift.
func (r *BusinessRepo) UpdateRating(ctx context.Context, businessID uuid.UUID, summary domain.RatingSummary) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Business)(nil)).
		Set("rating_average = ?", summary.Average).
		Set("rating_count = ?", summary.Count).
		Set("updated_at = now()").
		Where("id = ?", businessID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
