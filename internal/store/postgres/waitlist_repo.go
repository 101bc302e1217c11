package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tagbanwa/salontime-backend/internal/domain"
	"github.com/tagbanwa/salontime-backend/internal/store"
)

type WaitlistRepo struct {
	db *bun.DB
}

func NewWaitlistRepo(db *bun.DB) *WaitlistRepo {
	return &WaitlistRepo{db: db}
}

type waitlistTx struct {
	tx bun.Tx
}

func (r *WaitlistRepo) Create(ctx context.Context, entry domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	m := entry
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.WaitlistEntry{}, err
	}
	return m, nil
}

func (r *WaitlistRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.WaitlistEntry, error) {
	var entry domain.WaitlistEntry
	err := r.db.NewSelect().
		Model(&entry).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WaitlistEntry{}, store.ErrNotFound
	}
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	return entry, nil
}

func (r *WaitlistRepo) Remove(ctx context.Context, id uuid.UUID) (domain.WaitlistEntry, error) {
	var out domain.WaitlistEntry
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*domain.WaitlistEntry)(nil)).
			Set("status = ?", domain.WaitlistStatusRemoved).
			Set("updated_at = now()").
			Where("id = ?", id).
			Where("status IN (?, ?)", domain.WaitlistStatusWaiting, domain.WaitlistStatusOffered).
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
		return tx.NewSelect().Model(&out).Where("id = ?", id).Limit(1).Scan(ctx)
	})
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	return out, nil
}

// InSlotTransaction serializes waitlist dispatch per freed slot. Concurrent
// cancellations freeing the same slot queue on the advisory lock, so the
// at-most-one-active-offer invariant holds without table locks.
func (r *WaitlistRepo) InSlotTransaction(ctx context.Context, businessID, serviceID uuid.UUID, date string, startMinutes int, fn func(ctx context.Context, tx store.WaitlistTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		key := fmt.Sprintf("waitlist:%s:%s:%s:%d", businessID, serviceID, date, startMinutes)
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx); err != nil {
			return err
		}
		return fn(ctx, waitlistTx{tx: tx})
	})
}

func (r waitlistTx) ExpireLapsedOffers(ctx context.Context, businessID, serviceID uuid.UUID, date string, now time.Time) (int, error) {
	res, err := r.tx.NewUpdate().
		Model((*domain.WaitlistEntry)(nil)).
		Set("status = ?", domain.WaitlistStatusExpired).
		Set("updated_at = now()").
		Where("business_id = ?", businessID).
		Where("service_id = ?", serviceID).
		Where("requested_date = ?", date).
		Where("status = ?", domain.WaitlistStatusOffered).
		Where("offer_expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r waitlistTx) ActiveOfferExists(ctx context.Context, businessID, serviceID uuid.UUID, date string, startMinutes int, now time.Time) (bool, error) {
	return r.tx.NewSelect().
		Model((*domain.WaitlistEntry)(nil)).
		Where("business_id = ?", businessID).
		Where("service_id = ?", serviceID).
		Where("offered_date = ?", date).
		Where("offered_start_minutes = ?", startMinutes).
		Where("status = ?", domain.WaitlistStatusOffered).
		Where("offer_expires_at > ?", now).
		Exists(ctx)
}

func (r waitlistTx) ListWaiting(ctx context.Context, businessID, serviceID uuid.UUID, date string) ([]domain.WaitlistEntry, error) {
	var rows []domain.WaitlistEntry
	err := r.tx.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		Where("service_id = ?", serviceID).
		Where("requested_date = ?", date).
		Where("status = ?", domain.WaitlistStatusWaiting).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r waitlistTx) MarkOffered(ctx context.Context, id uuid.UUID, date string, startMinutes int, expiresAt time.Time) (domain.WaitlistEntry, error) {
	return r.transition(ctx, id, domain.WaitlistStatusWaiting, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("status = ?", domain.WaitlistStatusOffered).
			Set("offered_date = ?", date).
			Set("offered_start_minutes = ?", startMinutes).
			Set("offer_expires_at = ?", expiresAt)
	})
}

func (r waitlistTx) MarkBooked(ctx context.Context, id uuid.UUID) (domain.WaitlistEntry, error) {
	return r.transition(ctx, id, domain.WaitlistStatusOffered, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("status = ?", domain.WaitlistStatusBooked)
	})
}

// FindOffered locates the caller's live offer for an exact slot, if any, so a
// successful booking of that slot converts the entry to booked.
func (r waitlistTx) FindOffered(ctx context.Context, businessID, serviceID uuid.UUID, clientID, date string, startMinutes int, now time.Time) (domain.WaitlistEntry, error) {
	var entry domain.WaitlistEntry
	err := r.tx.NewSelect().
		Model(&entry).
		Where("business_id = ?", businessID).
		Where("service_id = ?", serviceID).
		Where("client_id = ?", clientID).
		Where("offered_date = ?", date).
		Where("offered_start_minutes = ?", startMinutes).
		Where("status = ?", domain.WaitlistStatusOffered).
		Where("offer_expires_at > ?", now).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WaitlistEntry{}, store.ErrNotFound
	}
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	return entry, nil
}

func (r waitlistTx) transition(ctx context.Context, id uuid.UUID, from domain.WaitlistStatus, apply func(*bun.UpdateQuery) *bun.UpdateQuery) (domain.WaitlistEntry, error) {
	q := r.tx.NewUpdate().
		Model((*domain.WaitlistEntry)(nil)).
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("status = ?", from)
	res, err := apply(q).Exec(ctx)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	if affected == 0 {
		return domain.WaitlistEntry{}, store.ErrConflict
	}

	var out domain.WaitlistEntry
	if err := r.tx.NewSelect().Model(&out).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return domain.WaitlistEntry{}, err
	}
	return out, nil
}
