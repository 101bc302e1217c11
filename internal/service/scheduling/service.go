package scheduling

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

var (
	// ErrForbidden is returned when the actor's role or ownership does not
	// permit the requested operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition is returned when the reservation's current status
	// does not admit the requested transition.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// dispatcher re-offers freed slots to the waitlist and converts live offers
// into bookings.
type dispatcher interface {
	DispatchFreedSlot(ctx context.Context, businessID, serviceID uuid.UUID, date string, startMinutes int) (domain.WaitlistEntry, bool, error)
	ClaimOffered(ctx context.Context, businessID, serviceID uuid.UUID, clientID, date string, startMinutes int) (bool, error)
}

type Service struct {
	reservations store.ReservationStore
	businesses   store.BusinessStore
	waitlist     dispatcher
	events       events.Publisher
	log          *slog.Logger
	granularity  int
	now          func() time.Time
}

type Option func(*Service)

// WithClock overrides the wall clock used for same-day cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGranularity overrides the candidate slot step in minutes.
func WithGranularity(minutes int) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.granularity = minutes
		}
	}
}

func NewService(reservations store.ReservationStore, businesses store.BusinessStore, waitlist dispatcher, publisher events.Publisher, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		reservations: reservations,
		businesses:   businesses,
		waitlist:     waitlist,
		events:       publisher,
		log:          log.With(slog.String("component", "scheduling")),
		granularity:  domain.DefaultSlotGranularity,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAvailableSlots lists the bookable slots for a service on a date. An
// empty result is success, not failure; only an unknown business or service
// errors.
func (s *Service) GetAvailableSlots(ctx context.Context, businessID, serviceID uuid.UUID, date, resourceID string) ([]domain.Interval, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, validationError("invalid date, want YYYY-MM-DD")
	}

	business, svc, err := s.loadBusinessService(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.DurationMinutes <= 0 {
		return nil, validationError("service duration must be positive")
	}

	window, open := business.Hours.ForDate(date)
	if !open {
		return nil, nil
	}

	existing, err := s.reservations.ListActive(ctx, businessID, resourceID, date)
	if err != nil {
		return nil, err
	}

	return domain.AvailableSlots(
		window.Start,
		window.End,
		svc.DurationMinutes,
		s.granularity,
		reservationSpans(existing),
		s.sameDayMinutes(date),
	), nil
}

type CreateInput struct {
	BusinessID     uuid.UUID
	ServiceID      uuid.UUID
	ResourceID     string
	Date           string
	StartTime      string
	IdempotencyKey string
}

// CreateReservation validates the requested slot against business hours and
// granularity, then commits it; the store repeats the conflict check inside
// its transaction, so at most one of two overlapping requests succeeds.
func (s *Service) CreateReservation(ctx context.Context, actor domain.Actor, in CreateInput) (domain.Reservation, error) {
	if actor.Role != domain.ActorRoleClient {
		return domain.Reservation{}, ErrForbidden
	}
	if actor.ID == "" {
		return domain.Reservation{}, validationError("client id is required")
	}

	business, svc, err := s.loadBusinessService(ctx, in.BusinessID, in.ServiceID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !svc.Active {
		return domain.Reservation{}, validationError("service is not active")
	}
	if svc.DurationMinutes <= 0 {
		return domain.Reservation{}, validationError("service duration must be positive")
	}

	start, err := s.validateSlot(business, svc, in.Date, in.StartTime)
	if err != nil {
		return domain.Reservation{}, err
	}

	res := domain.Reservation{
		BusinessID:      in.BusinessID,
		ServiceID:       in.ServiceID,
		ResourceID:      strings.TrimSpace(in.ResourceID),
		ClientID:        actor.ID,
		Date:            in.Date,
		StartMinutes:    start,
		EndMinutes:      start + svc.DurationMinutes,
		DurationMinutes: svc.DurationMinutes,
		Status:          domain.InitialStatus(business.AutoConfirm),
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.Reservation{}, validationError("idempotency_key too long")
		}
		res.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("salontime:create_reservation:"+actor.ID+":"+key))
	}

	created, err := s.reservations.Create(ctx, res)
	if err != nil {
		return domain.Reservation{}, err
	}

	// Booking the exact slot the client was offered consumes their waitlist
	// entry. A booking for any other slot leaves the entry untouched.
	if s.waitlist != nil {
		if _, err := s.waitlist.ClaimOffered(ctx, created.BusinessID, created.ServiceID, created.ClientID, created.Date, created.StartMinutes); err != nil {
			s.log.Warn("waitlist claim failed",
				slog.String("reservation_id", created.ID.String()),
				slog.Any("err", err),
			)
		}
	}

	s.events.Publish(ctx, events.TypeReservationCreated, created.ID.String(), reservationEvent(created))
	return created, nil
}

// RescheduleReservation moves a reservation in place. The new slot must be
// legal under current business hours; the store's conflict re-read excludes
// the reservation's own prior interval. The status drops back to the creation
// policy, so manually confirming businesses reconfirm the new time.
func (s *Service) RescheduleReservation(ctx context.Context, actor domain.Actor, id uuid.UUID, newDate, newStartTime string) (domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := s.authorize(actor, res); err != nil {
		return domain.Reservation{}, err
	}
	if res.Status.Terminal() {
		return domain.Reservation{}, ErrInvalidTransition
	}

	business, err := s.businesses.GetBusiness(ctx, res.BusinessID)
	if err != nil {
		return domain.Reservation{}, err
	}

	start, err := s.validateSlotWindow(business, res.DurationMinutes, newDate, newStartTime)
	if err != nil {
		return domain.Reservation{}, err
	}

	updated, err := s.reservations.Reschedule(ctx, id, newDate, start, start+res.DurationMinutes, domain.InitialStatus(business.AutoConfirm))
	if err != nil {
		return domain.Reservation{}, err
	}

	s.events.Publish(ctx, events.TypeReservationRescheduled, updated.ID.String(), map[string]any{
		"reservation_id": updated.ID.String(),
		"business_id":    updated.BusinessID.String(),
		"prev_date":      updated.PrevDate,
		"prev_start":     domain.MinutesToTime(updated.PrevStartMin),
		"date":           updated.Date,
		"start":          domain.MinutesToTime(updated.StartMinutes),
	})
	return updated, nil
}

// UpdateReservationStatus applies the role-based transition table. Role
// violations surface as ErrForbidden, state violations as
// ErrInvalidTransition. Cancellation hands the freed slot to the waitlist
// dispatcher; a dispatch failure is logged but never rolls back the
// cancellation.
func (s *Service) UpdateReservationStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, newStatus domain.ReservationStatus) (domain.Reservation, error) {
	if !newStatus.Valid() || newStatus == domain.ReservationStatusPending {
		return domain.Reservation{}, validationError("invalid target status")
	}

	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := s.authorize(actor, res); err != nil {
		return domain.Reservation{}, err
	}
	if res.Status.Terminal() {
		return domain.Reservation{}, ErrInvalidTransition
	}
	if !domain.CanTransition(actor.Role, res.Status, newStatus) {
		return domain.Reservation{}, ErrForbidden
	}

	updated, err := s.reservations.UpdateStatus(ctx, id, res.Status, newStatus)
	if err != nil {
		return domain.Reservation{}, err
	}

	if newStatus == domain.ReservationStatusCancelled && s.waitlist != nil {
		if _, _, err := s.waitlist.DispatchFreedSlot(ctx, updated.BusinessID, updated.ServiceID, updated.Date, updated.StartMinutes); err != nil {
			s.log.Warn("waitlist dispatch failed",
				slog.String("reservation_id", updated.ID.String()),
				slog.String("date", updated.Date),
				slog.Any("err", err),
			)
		}
	}

	s.events.Publish(ctx, events.TypeReservationStatus, updated.ID.String(), map[string]any{
		"reservation_id": updated.ID.String(),
		"business_id":    updated.BusinessID.String(),
		"status":         string(updated.Status),
	})
	return updated, nil
}

func (s *Service) ListReservations(ctx context.Context, actor domain.Actor, businessID uuid.UUID, limit int) ([]domain.Reservation, error) {
	if actor.Role != domain.ActorRoleOwner && actor.Role != domain.ActorRoleStaff {
		return nil, ErrForbidden
	}
	if actor.BusinessID != businessID {
		return nil, ErrForbidden
	}
	return s.reservations.ListByBusiness(ctx, businessID, limit)
}

// authorize enforces explicit ownership: clients act on their own
// reservations, owners and staff on their own business's.
func (s *Service) authorize(actor domain.Actor, res domain.Reservation) error {
	switch actor.Role {
	case domain.ActorRoleClient:
		if res.ClientID != actor.ID {
			return ErrForbidden
		}
	case domain.ActorRoleOwner, domain.ActorRoleStaff:
		if actor.BusinessID != res.BusinessID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}

// validateSlot checks that the requested slot is one the availability walk
// would emit for an empty calendar: inside the day's window, aligned to the
// granularity, and not in the past for same-day requests. Occupancy is the
// store's concern at commit time.
func (s *Service) validateSlot(business domain.Business, svc domain.Service, date, startTime string) (int, error) {
	return s.validateSlotWindow(business, svc.DurationMinutes, date, startTime)
}

func (s *Service) validateSlotWindow(business domain.Business, duration int, date, startTime string) (int, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return 0, validationError("invalid date, want YYYY-MM-DD")
	}
	start, err := domain.TimeToMinutes(startTime)
	if err != nil {
		return 0, validationError("invalid start time, want HH:MM")
	}
	if duration <= 0 {
		return 0, validationError("service duration must be positive")
	}

	window, open := business.Hours.ForDate(date)
	if !open {
		return 0, validationError("business is closed on the requested date")
	}
	candidates := domain.AvailableSlots(window.Start, window.End, duration, s.granularity, nil, s.sameDayMinutes(date))
	for _, c := range candidates {
		if c.Start == start {
			return start, nil
		}
	}
	return 0, validationError("requested slot is not bookable")
}

// sameDayMinutes returns the current minute of day when date is today in the
// timezone of record, and -1 otherwise.
func (s *Service) sameDayMinutes(date string) int {
	now := s.now()
	if now.Format(domain.DateLayout) != date {
		return -1
	}
	return domain.MinutesOfDay(now)
}

func (s *Service) loadBusinessService(ctx context.Context, businessID, serviceID uuid.UUID) (domain.Business, domain.Service, error) {
	business, err := s.businesses.GetBusiness(ctx, businessID)
	if err != nil {
		return domain.Business{}, domain.Service{}, err
	}
	svc, err := s.businesses.GetService(ctx, serviceID)
	if err != nil {
		return domain.Business{}, domain.Service{}, err
	}
	if svc.BusinessID != businessID {
		return domain.Business{}, domain.Service{}, store.ErrNotFound
	}
	return business, svc, nil
}

func reservationSpans(reservations []domain.Reservation) []domain.Interval {
	out := make([]domain.Interval, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, r.Span())
	}
	return out
}

func reservationEvent(r domain.Reservation) map[string]any {
	return map[string]any{
		"reservation_id": r.ID.String(),
		"business_id":    r.BusinessID.String(),
		"service_id":     r.ServiceID.String(),
		"resource_id":    r.ResourceID,
		"client_id":      r.ClientID,
		"date":           r.Date,
		"start":          domain.MinutesToTime(r.StartMinutes),
		"end":            domain.MinutesToTime(r.EndMinutes),
		"status":         string(r.Status),
	}
}
