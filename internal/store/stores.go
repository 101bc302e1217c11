package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tagbanwa/salontime-backend/internal/domain"
)

// ReservationStore persists reservations. Create and Reschedule must be
// atomic with respect to concurrent writers on the same resource and date:
// implementations re-read overlapping non-cancelled reservations inside the
// same transaction that performs the write and return ErrConflict when the
// requested span is taken.
type ReservationStore interface {
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	ListActive(ctx context.Context, businessID uuid.UUID, resourceID, date string) ([]domain.Reservation, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]domain.Reservation, error)
	Reschedule(ctx context.Context, id uuid.UUID, newDate string, newStart, newEnd int, newStatus domain.ReservationStatus) (domain.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ReservationStatus) (domain.Reservation, error)
}

// WaitlistTx is the per-slot transactional view used by the dispatcher. All
// methods run under a slot-scoped lock so that at most one active offer can
// exist for a freed slot.
type WaitlistTx interface {
	ExpireLapsedOffers(ctx context.Context, businessID, serviceID uuid.UUID, date string, now time.Time) (int, error)
	ActiveOfferExists(ctx context.Context, businessID, serviceID uuid.UUID, date string, startMinutes int, now time.Time) (bool, error)
	ListWaiting(ctx context.Context, businessID, serviceID uuid.UUID, date string) ([]domain.WaitlistEntry, error)
	MarkOffered(ctx context.Context, id uuid.UUID, date string, startMinutes int, expiresAt time.Time) (domain.WaitlistEntry, error)
	MarkBooked(ctx context.Context, id uuid.UUID) (domain.WaitlistEntry, error)
	FindOffered(ctx context.Context, businessID, serviceID uuid.UUID, clientID, date string, startMinutes int, now time.Time) (domain.WaitlistEntry, error)
}

type WaitlistStore interface {
	Create(ctx context.Context, entry domain.WaitlistEntry) (domain.WaitlistEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.WaitlistEntry, error)
	Remove(ctx context.Context, id uuid.UUID) (domain.WaitlistEntry, error)
	InSlotTransaction(ctx context.Context, businessID, serviceID uuid.UUID, date string, startMinutes int, fn func(ctx context.Context, tx WaitlistTx) error) error
}

type ReviewStore interface {
	Create(ctx context.Context, review domain.Review) (domain.Review, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Review, error)
	Update(ctx context.Context, id uuid.UUID, rating int, comment string) (domain.Review, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (domain.Review, error)
	ListVisibleByBusiness(ctx context.Context, businessID uuid.UUID) ([]domain.Review, error)
}

// BusinessStore reads business profiles and services; both are owned by the
// profile layer and read-only to the scheduling core, except for the derived
// rating fields the projector maintains.
type BusinessStore interface {
	GetBusiness(ctx context.Context, id uuid.UUID) (domain.Business, error)
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)
	UpdateRating(ctx context.Context, businessID uuid.UUID, summary domain.RatingSummary) error
}
