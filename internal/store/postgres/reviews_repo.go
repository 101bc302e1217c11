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

type ReviewRepo struct {
	db *bun.DB
}

func NewReviewRepo(db *bun.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func (r *ReviewRepo) Create(ctx context.Context, review domain.Review) (domain.Review, error) {
	m := review
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Review{}, err
	}
	return m, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Review, error) {
	var review domain.Review
	err := r.db.NewSelect().
		Model(&review).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepo) Update(ctx context.Context, id uuid.UUID, rating int, comment string) (domain.Review, error) {
	return r.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("rating = ?", rating).
			Set("comment = ?", comment)
	})
}

// SoftDelete hides a review from the aggregate without destroying it;
// historical totals stay reconstructable.
func (r *ReviewRepo) SoftDelete(ctx context.Context, id uuid.UUID) (domain.Review, error) {
	return r.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("is_visible = ?", false)
	})
}

func (r *ReviewRepo) ListVisibleByBusiness(ctx context.Context, businessID uuid.UUID) ([]domain.Review, error) {
	var rows []domain.Review
	err := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		Where("is_visible = ?", true).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReviewRepo) update(ctx context.Context, id uuid.UUID, apply func(*bun.UpdateQuery) *bun.UpdateQuery) (domain.Review, error) {
	var out domain.Review
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*domain.Review)(nil)).
			Set("updated_at = now()").
			Where("id = ?", id)
		res, err := apply(q).Exec(ctx)
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
		return tx.NewSelect().Model(&out).Where("id = ?", id).Limit(1).Scan(ctx)
	})
	if err != nil {
		return domain.Review{}, err
	}
	return out, nil
}
