package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusNoShow    ReservationStatus = "no_show"
)

// Terminal reports whether a status admits no further transitions.
// Cancelled reservations are never re-activated; a new one must be created.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCompleted,
		ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

type ActorRole string

const (
	ActorRoleClient ActorRole = "client"
	ActorRoleOwner  ActorRole = "owner"
	ActorRoleStaff  ActorRole = "staff"
)

// Actor identifies the principal requesting a mutation. Authorization is
// enforced explicitly here and in the services; there is no row-level policy
// layer underneath.
type Actor struct {
	ID         string
	Role       ActorRole
	BusinessID uuid.UUID
}

// CanTransition applies the role-based transition table. Clients may only
// cancel their pending or confirmed reservations; owners and staff may
// confirm, complete, cancel, or mark no-show. Nothing leaves a terminal state.
func CanTransition(role ActorRole, from, to ReservationStatus) bool {
	if from.Terminal() || !to.Valid() {
		return false
	}
	switch role {
	case ActorRoleClient:
		return to == ReservationStatusCancelled
	case ActorRoleOwner, ActorRoleStaff:
		switch to {
		case ReservationStatusConfirmed, ReservationStatusCompleted,
			ReservationStatusCancelled, ReservationStatusNoShow:
			return true
		}
	}
	return false
}

// InitialStatus is the creation status policy: auto-accept businesses confirm
// immediately, manual businesses start pending.
func InitialStatus(autoConfirm bool) ReservationStatus {
	if autoConfirm {
		return ReservationStatusConfirmed
	}
	return ReservationStatusPending
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid"`
	BusinessID      uuid.UUID         `bun:"business_id,notnull,type:uuid"`
	ServiceID       uuid.UUID         `bun:"service_id,notnull,type:uuid"`
	ResourceID      string            `bun:"resource_id,notnull,default:''"`
	ClientID        string            `bun:"client_id,notnull"`
	Date            string            `bun:"date,notnull"`
	StartMinutes    int               `bun:"start_minutes,notnull"`
	EndMinutes      int               `bun:"end_minutes,notnull"`
	DurationMinutes int               `bun:"duration_minutes,notnull"`
	Status          ReservationStatus `bun:"status,notnull"`
	PrevDate        string            `bun:"prev_date"`
	PrevStartMin    int               `bun:"prev_start_minutes"`
	CreatedAt       time.Time         `bun:"created_at,notnull"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull"`
}

func (r *Reservation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// Span returns the reservation's slot as a half-open minute interval.
func (r Reservation) Span() Interval {
	return Interval{Start: r.StartMinutes, End: r.EndMinutes}
}
