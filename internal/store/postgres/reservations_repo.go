package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/tagbanwa/salontime-backend/internal/domain"
	"github.com/tagbanwa/salontime-backend/internal/store"
)

type ReservationRepo struct {
	db *bun.DB
}

func NewReservationRepo(db *bun.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

// Create inserts a reservation after re-reading overlapping reservations for
// the same resource and date inside the transaction. The day's calendar is
// serialized with an advisory lock so two concurrent requests for overlapping
// spans cannot both pass the conflict check.
func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDayCalendar(ctx, tx, res.BusinessID, res.Date); err != nil {
			return err
		}

		// Excluding the candidate's own ID lets an idempotent replay fall
		// through to the duplicate-key path instead of conflicting with the
		// row it wrote the first time.
		existing, err := listActiveTx(ctx, tx, res.BusinessID, res.ResourceID, res.Date, res.ID)
		if err != nil {
			return err
		}
		if domain.HasConflict(res.Span(), spans(existing)) {
			return store.ErrConflict
		}

		m := res
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				if pgErr.Code == "23P01" && pgErr.ConstraintName == "reservations_no_overlap" {
					return store.ErrConflict
				}
				if pgErr.Code == "23505" {
					return replayIdempotentInsert(ctx, tx, res, &out)
				}
			}
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

// replayIdempotentInsert resolves a duplicate-key insert: the same
// deterministic ID with identical fields is a replay and returns the stored
// row; anything else reused the idempotency key for a different reservation.
func replayIdempotentInsert(ctx context.Context, tx bun.Tx, res domain.Reservation, out *domain.Reservation) error {
	var existing domain.Reservation
	err := tx.NewSelect().
		Model(&existing).
		Where("id = ?", res.ID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return err
	}

	if existing.BusinessID != res.BusinessID ||
		existing.ServiceID != res.ServiceID ||
		existing.ResourceID != res.ResourceID ||
		existing.ClientID != res.ClientID ||
		existing.Date != res.Date ||
		existing.StartMinutes != res.StartMinutes ||
		existing.EndMinutes != res.EndMinutes {
		return store.ErrIdempotencyConflict
	}

	*out = existing
	return nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.NewSelect().
		Model(&res).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepo) ListActive(ctx context.Context, businessID uuid.UUID, resourceID, date string) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	q := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		Where("date = ?", date).
		Where("status != ?", domain.ReservationStatusCancelled).
		OrderExpr("start_minutes ASC")
	if resourceID != "" {
		q = q.Where("(resource_id = ? OR resource_id = '')", resourceID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]domain.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		OrderExpr("date DESC, start_minutes DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Reschedule moves a reservation in place, preserving identity. The conflict
// re-read excludes the reservation's own prior interval, and the previous slot
// is retained on the row for notification purposes.
func (r *ReservationRepo) Reschedule(ctx context.Context, id uuid.UUID, newDate string, newStart, newEnd int, newStatus domain.ReservationStatus) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var res domain.Reservation
		err := tx.NewSelect().
			Model(&res).
			Where("id = ?", id).
			For("UPDATE").
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		if res.Status.Terminal() {
			return store.ErrConflict
		}

		if err := lockDayCalendar(ctx, tx, res.BusinessID, newDate); err != nil {
			return err
		}

		existing, err := listActiveTx(ctx, tx, res.BusinessID, res.ResourceID, newDate, res.ID)
		if err != nil {
			return err
		}
		if domain.HasConflict(domain.Interval{Start: newStart, End: newEnd}, spans(existing)) {
			return store.ErrConflict
		}

		res.PrevDate = res.Date
		res.PrevStartMin = res.StartMinutes
		res.Date = newDate
		res.StartMinutes = newStart
		res.EndMinutes = newEnd
		res.Status = newStatus

		if _, err := tx.NewUpdate().
			Model(&res).
			Column("date", "start_minutes", "end_minutes", "status", "prev_date", "prev_start_minutes", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

// UpdateStatus applies an optimistic from-state guard: if the row is no longer
// in the expected status the caller observes a conflict, never a silent
// double transition.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ReservationStatus) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*domain.Reservation)(nil)).
			Set("status = ?", to).
			Set("updated_at = now()").
			Where("id = ?", id).
			Where("status = ?", from).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			exists, err := tx.NewSelect().
				Model((*domain.Reservation)(nil)).
				Where("id = ?", id).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return store.ErrNotFound
			}
			return store.ErrConflict
		}

		return tx.NewSelect().
			Model(&out).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

func listActiveTx(ctx context.Context, tx bun.Tx, businessID uuid.UUID, resourceID, date string, excludeID uuid.UUID) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	q := tx.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		Where("date = ?", date).
		Where("status != ?", domain.ReservationStatusCancelled).
		OrderExpr("start_minutes ASC")
	if resourceID != "" {
		q = q.Where("(resource_id = ? OR resource_id = '')", resourceID)
	}
	if excludeID != uuid.Nil {
		q = q.Where("id != ?", excludeID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

// lockDayCalendar serializes all writers touching one business's calendar day.
func lockDayCalendar(ctx context.Context, tx bun.Tx, businessID uuid.UUID, date string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", businessID.String()+":"+date).Exec(ctx)
	return err
}

func spans(reservations []domain.Reservation) []domain.Interval {
	out := make([]domain.Interval, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, r.Span())
	}
	return out
}
