package waitlist

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tagbanwa/salontime-backend/internal/domain"
	"github.com/tagbanwa/salontime-backend/internal/events"
	"github.com/tagbanwa/salontime-backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ErrForbidden is returned when an actor touches another client's entry.
var ErrForbidden = errors.New("forbidden")

type Service struct {
	entries     store.WaitlistStore
	businesses  store.BusinessStore
	events      events.Publisher
	log         *slog.Logger
	offerWindow time.Duration
	now         func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithOfferWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.offerWindow = window
		}
	}
}

func NewService(entries store.WaitlistStore, businesses store.BusinessStore, publisher events.Publisher, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		entries:     entries,
		businesses:  businesses,
		events:      publisher,
		log:         log.With(slog.String("component", "waitlist")),
		offerWindow: domain.DefaultOfferWindow,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type JoinInput struct {
	BusinessID    uuid.UUID
	ServiceID     uuid.UUID
	RequestedDate string
	EarliestTime  string
	LatestTime    string
}

// Join queues the client for a slot on the requested date. The optional
// preferred range bounds which freed start times the entry accepts.
func (s *Service) Join(ctx context.Context, actor domain.Actor, in JoinInput) (domain.WaitlistEntry, error) {
	if actor.Role != domain.ActorRoleClient || actor.ID == "" {
		return domain.WaitlistEntry{}, ErrForbidden
	}
	if _, err := domain.ParseDate(in.RequestedDate); err != nil {
		return domain.WaitlistEntry{}, validationError("invalid requested date, want YYYY-MM-DD")
	}

	business, err := s.businesses.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	svc, err := s.businesses.GetService(ctx, in.ServiceID)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	if svc.BusinessID != business.ID {
		return domain.WaitlistEntry{}, store.ErrNotFound
	}

	earliest, err := optionalMinutes(in.EarliestTime)
	if err != nil {
		return domain.WaitlistEntry{}, validationError("invalid earliest time, want HH:MM")
	}
	latest, err := optionalMinutes(in.LatestTime)
	if err != nil {
		return domain.WaitlistEntry{}, validationError("invalid latest time, want HH:MM")
	}
	if earliest >= 0 && latest >= 0 && latest < earliest {
		return domain.WaitlistEntry{}, validationError("latest time must not precede earliest time")
	}

	return s.entries.Create(ctx, domain.WaitlistEntry{
		BusinessID:      in.BusinessID,
		ServiceID:       in.ServiceID,
		ClientID:        actor.ID,
		RequestedDate:   in.RequestedDate,
		EarliestMinutes: earliest,
		LatestMinutes:   latest,
		Status:          domain.WaitlistStatusWaiting,
	})
}

// Leave removes the client's own entry from the queue.
func (s *Service) Leave(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.WaitlistEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	if actor.Role != domain.ActorRoleClient || entry.ClientID != actor.ID {
		return domain.WaitlistEntry{}, ErrForbidden
	}
	return s.entries.Remove(ctx, id)
}

// DispatchFreedSlot offers a newly freed slot to the oldest eligible waiting
// entry. It runs under a slot-scoped lock: lapsed offers expire lazily first,
// then dispatch is skipped if the slot already carries a live offer, so at
// most one entry holds an offer for a given slot.
func (s *Service) DispatchFreedSlot(ctx context.Context, businessID, serviceID uuid.UUID, date string, startMinutes int) (domain.WaitlistEntry, bool, error) {
	var (
		offered domain.WaitlistEntry
		ok      bool
	)
	err := s.entries.InSlotTransaction(ctx, businessID, serviceID, date, startMinutes, func(ctx context.Context, tx store.WaitlistTx) error {
		now := s.now()

		expired, err := tx.ExpireLapsedOffers(ctx, businessID, serviceID, date, now)
		if err != nil {
			return err
		}
		if expired > 0 {
			s.log.Info("expired lapsed offers",
				slog.Int("count", expired),
				slog.String("business_id", businessID.String()),
				slog.String("date", date),
			)
		}

		exists, err := tx.ActiveOfferExists(ctx, businessID, serviceID, date, startMinutes, now)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		waiting, err := tx.ListWaiting(ctx, businessID, serviceID, date)
		if err != nil {
			return err
		}
		for _, entry := range waiting {
			if !entry.AcceptsStart(startMinutes) {
				continue
			}
			out, err := tx.MarkOffered(ctx, entry.ID, date, startMinutes, now.Add(s.offerWindow))
			if err != nil {
				return err
			}
			offered = out
			ok = true
			return nil
		}
		return nil
	})
	if err != nil {
		return domain.WaitlistEntry{}, false, err
	}

	if ok {
		s.events.Publish(ctx, events.TypeWaitlistOffered, offered.ID.String(), map[string]any{
			"entry_id":    offered.ID.String(),
			"business_id": offered.BusinessID.String(),
			"service_id":  offered.ServiceID.String(),
			"client_id":   offered.ClientID,
			"date":        date,
			"start":       domain.MinutesToTime(startMinutes),
			"expires_at":  offered.OfferExpiresAt,
		})
	}
	return offered, ok, nil
}

// ClaimOffered converts the client's live offer for the exact slot into a
// booked entry. It reports false when no such offer exists; bookings for
// unrelated slots never touch waitlist state.
func (s *Service) ClaimOffered(ctx context.Context, businessID, serviceID uuid.UUID, clientID, date string, startMinutes int) (bool, error) {
	claimed := false
	err := s.entries.InSlotTransaction(ctx, businessID, serviceID, date, startMinutes, func(ctx context.Context, tx store.WaitlistTx) error {
		entry, err := tx.FindOffered(ctx, businessID, serviceID, clientID, date, startMinutes, s.now())
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.MarkBooked(ctx, entry.ID); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func optionalMinutes(clock string) (int, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return -1, nil
	}
	return domain.TimeToMinutes(clock)
}
