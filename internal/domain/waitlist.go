package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type WaitlistStatus string

const (
	WaitlistStatusWaiting WaitlistStatus = "waiting"
	WaitlistStatusOffered WaitlistStatus = "offered"
	WaitlistStatusExpired WaitlistStatus = "expired"
	WaitlistStatusBooked  WaitlistStatus = "booked"
	WaitlistStatusRemoved WaitlistStatus = "removed"
)

// DefaultOfferWindow is how long an offered slot stays claimable before it
// lapses to the next eligible entry.
const DefaultOfferWindow = 24 * time.Hour

// WaitlistEntry queues a client for a slot that did not exist when they asked.
// Entries are FIFO by CreatedAt within (business, service, requested date).
// EarliestMinutes/LatestMinutes bound the preferred start time; -1 means the
// bound is unset.
type WaitlistEntry struct {
	bun.BaseModel `bun:"table:waitlist_entries"`

	ID              uuid.UUID      `bun:"id,pk,type:uuid"`
	BusinessID      uuid.UUID      `bun:"business_id,notnull,type:uuid"`
	ServiceID       uuid.UUID      `bun:"service_id,notnull,type:uuid"`
	ClientID        string         `bun:"client_id,notnull"`
	RequestedDate   string         `bun:"requested_date,notnull"`
	EarliestMinutes int            `bun:"earliest_minutes,notnull,default:-1"`
	LatestMinutes   int            `bun:"latest_minutes,notnull,default:-1"`
	Status          WaitlistStatus `bun:"status,notnull"`
	OfferedDate     string         `bun:"offered_date"`
	OfferedStartMin int            `bun:"offered_start_minutes"`
	OfferExpiresAt  *time.Time     `bun:"offer_expires_at"`
	CreatedAt       time.Time      `bun:"created_at,notnull"`
	UpdatedAt       time.Time      `bun:"updated_at,notnull"`
}

func (e *WaitlistEntry) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			e.ID = id
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}

// AcceptsStart reports whether a freed slot starting at startMinutes falls
// inside the entry's preferred range. Unset bounds accept any start.
func (e WaitlistEntry) AcceptsStart(startMinutes int) bool {
	if e.EarliestMinutes >= 0 && startMinutes < e.EarliestMinutes {
		return false
	}
	if e.LatestMinutes >= 0 && startMinutes > e.LatestMinutes {
		return false
	}
	return true
}

// OfferLapsed reports whether an offered entry's claim window has passed.
func (e WaitlistEntry) OfferLapsed(now time.Time) bool {
	return e.Status == WaitlistStatusOffered && e.OfferExpiresAt != nil && !now.Before(*e.OfferExpiresAt)
}
