package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DayHours is a single day's opening window. Both fields empty means the
// business is closed that day.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

func (d DayHours) Closed() bool {
	return d.Open == "" || d.Close == "" || d.Open == d.Close
}

// Window returns the day's opening window in minutes since midnight.
// ok is false when the day is closed or the stored hours are malformed.
func (d DayHours) Window() (Interval, bool) {
	if d.Closed() {
		return Interval{}, false
	}
	open, err := TimeToMinutes(d.Open)
	if err != nil {
		return Interval{}, false
	}
	close, err := TimeToMinutes(d.Close)
	if err != nil {
		return Interval{}, false
	}
	if close <= open {
		return Interval{}, false
	}
	return Interval{Start: open, End: close}, true
}

// WeeklyHours maps Monday-first weekday indexes to opening windows.
type WeeklyHours [7]DayHours

// Validate enforces open < close on every non-closed day.
func (w WeeklyHours) Validate() error {
	for _, d := range w {
		if d.Closed() {
			continue
		}
		if _, ok := d.Window(); !ok {
			return errors.New("opening time must be before closing time")
		}
	}
	return nil
}

// ForDate resolves the opening window for a canonical date.
func (w WeeklyHours) ForDate(date string) (Interval, bool) {
	day, err := DayOfWeek(date)
	if err != nil {
		return Interval{}, false
	}
	return w[day].Window()
}

type Business struct {
	bun.BaseModel `bun:"table:businesses"`

	ID            uuid.UUID   `bun:"id,pk,type:uuid"`
	OwnerID       string      `bun:"owner_id,notnull"`
	Name          string      `bun:"name,notnull"`
	AutoConfirm   bool        `bun:"auto_confirm,notnull"`
	Hours         WeeklyHours `bun:"hours,type:jsonb"`
	RatingAverage float64     `bun:"rating_average,notnull"`
	RatingCount   int         `bun:"rating_count,notnull"`
	CreatedAt     time.Time   `bun:"created_at,notnull"`
	UpdatedAt     time.Time   `bun:"updated_at,notnull"`
}

func (b *Business) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	BusinessID      uuid.UUID `bun:"business_id,notnull,type:uuid"`
	Name            string    `bun:"name,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	PriceCents      int       `bun:"price_cents,notnull"`
	Active          bool      `bun:"active,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}
