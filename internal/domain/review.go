package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	BusinessID    uuid.UUID `bun:"business_id,notnull,type:uuid"`
	ClientID      string    `bun:"client_id,notnull"`
	ReservationID uuid.UUID `bun:"reservation_id,type:uuid,nullzero"`
	Rating        int       `bun:"rating,notnull"`
	Comment       string    `bun:"comment"`
	Visible       bool      `bun:"is_visible,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func (r *Review) BeforeAppendModel(ctx context.Context, query bun.Query) error {
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

// RatingSummary is the denormalized projection kept on the business row.
type RatingSummary struct {
	Average float64
	Count   int
}

// ProjectRating recomputes the summary from scratch over the visible reviews.
// A full recompute is idempotent, so concurrent writers only need
// last-write-wins semantics on the aggregate fields.
func ProjectRating(reviews []Review) RatingSummary {
	sum := 0
	count := 0
	for _, r := range reviews {
		if !r.Visible {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return RatingSummary{}
	}
	avg := math.Round(float64(sum)/float64(count)*100) / 100
	return RatingSummary{Average: avg, Count: count}
}
