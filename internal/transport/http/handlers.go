package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tagbanwa/salontime-backend/internal/domain"
	"github.com/tagbanwa/salontime-backend/internal/service/reviews"
	"github.com/tagbanwa/salontime-backend/internal/service/scheduling"
	"github.com/tagbanwa/salontime-backend/internal/service/waitlist"
)

type slotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type reservationDTO struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	ServiceID  string `json:"service_id"`
	ResourceID string `json:"resource_id,omitempty"`
	ClientID   string `json:"client_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Status     string `json:"status"`
	PrevDate   string `json:"prev_date,omitempty"`
	PrevStart  string `json:"prev_start,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toReservationDTO(r domain.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:         r.ID.String(),
		BusinessID: r.BusinessID.String(),
		ServiceID:  r.ServiceID.String(),
		ResourceID: r.ResourceID,
		ClientID:   r.ClientID,
		Date:       r.Date,
		Start:      domain.MinutesToTime(r.StartMinutes),
		End:        domain.MinutesToTime(r.EndMinutes),
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.PrevDate != "" {
		dto.PrevDate = r.PrevDate
		dto.PrevStart = domain.MinutesToTime(r.PrevStartMin)
	}
	return dto
}

type waitlistEntryDTO struct {
	ID            string `json:"id"`
	BusinessID    string `json:"business_id"`
	ServiceID     string `json:"service_id"`
	ClientID      string `json:"client_id"`
	RequestedDate string `json:"requested_date"`
	Earliest      string `json:"earliest,omitempty"`
	Latest        string `json:"latest,omitempty"`
	Status        string `json:"status"`
	OfferedDate   string `json:"offered_date,omitempty"`
	OfferedStart  string `json:"offered_start,omitempty"`
	OfferExpires  string `json:"offer_expires_at,omitempty"`
}

func toWaitlistDTO(e domain.WaitlistEntry) waitlistEntryDTO {
	dto := waitlistEntryDTO{
		ID:            e.ID.String(),
		BusinessID:    e.BusinessID.String(),
		ServiceID:     e.ServiceID.String(),
		ClientID:      e.ClientID,
		RequestedDate: e.RequestedDate,
		Status:        string(e.Status),
	}
	if e.EarliestMinutes >= 0 {
		dto.Earliest = domain.MinutesToTime(e.EarliestMinutes)
	}
	if e.LatestMinutes >= 0 {
		dto.Latest = domain.MinutesToTime(e.LatestMinutes)
	}
	if e.Status == domain.WaitlistStatusOffered {
		dto.OfferedDate = e.OfferedDate
		dto.OfferedStart = domain.MinutesToTime(e.OfferedStartMin)
		if e.OfferExpiresAt != nil {
			dto.OfferExpires = e.OfferExpiresAt.UTC().Format(time.RFC3339)
		}
	}
	return dto
}

type reviewDTO struct {
	ID            string `json:"id"`
	BusinessID    string `json:"business_id"`
	ClientID      string `json:"client_id"`
	ReservationID string `json:"reservation_id,omitempty"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment,omitempty"`
	Visible       bool   `json:"visible"`
	CreatedAt     string `json:"created_at"`
}

func toReviewDTO(r domain.Review) reviewDTO {
	dto := reviewDTO{
		ID:         r.ID.String(),
		BusinessID: r.BusinessID.String(),
		ClientID:   r.ClientID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		Visible:    r.Visible,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.ReservationID != uuid.Nil {
		dto.ReservationID = r.ReservationID.String()
	}
	return dto
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	businessID, err := uuid.Parse(chi.URLParam(r, "businessID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid business id")
		return
	}
	serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid service_id")
		return
	}
	date := r.URL.Query().Get("date")
	resourceID := r.URL.Query().Get("resource_id")

	slots, err := s.scheduling.GetAvailableSlots(r.Context(), businessID, serviceID, date, resourceID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{
			Start: domain.MinutesToTime(slot.Start),
			End:   domain.MinutesToTime(slot.End),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": out})
}

type createReservationRequest struct {
	BusinessID string `json:"business_id"`
	ServiceID  string `json:"service_id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}

	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid business_id")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid service_id")
		return
	}

	created, err := s.scheduling.CreateReservation(r.Context(), actor, scheduling.CreateInput{
		BusinessID:     businessID,
		ServiceID:      serviceID,
		ResourceID:     req.ResourceID,
		Date:           req.Date,
		StartTime:      req.Start,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(created))
}

type rescheduleRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
}

func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid reservation id")
		return
	}

	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}

	updated, err := s.scheduling.RescheduleReservation(r.Context(), actor, id, req.Date, req.Start)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(updated))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid reservation id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}

	updated, err := s.scheduling.UpdateReservationStatus(r.Context(), actor, id, domain.ReservationStatus(req.Status))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(updated))
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}
	businessID, err := uuid.Parse(chi.URLParam(r, "businessID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid business id")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid limit")
			return
		}
		limit = parsed
	}

	list, err := s.scheduling.ListReservations(r.Context(), actor, businessID, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]reservationDTO, 0, len(list))
	for _, res := range list {
		out = append(out, toReservationDTO(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": out})
}

type joinWaitlistRequest struct {
	BusinessID    string `json:"business_id"`
	ServiceID     string `json:"service_id"`
	RequestedDate string `json:"requested_date"`
	Earliest      string `json:"earliest"`
	Latest        string `json:"latest"`
}

func (s *Server) handleJoinWaitlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}

	var req joinWaitlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid business_id")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid service_id")
		return
	}

	entry, err := s.waitlist.Join(r.Context(), actor, waitlist.JoinInput{
		BusinessID:    businessID,
		ServiceID:     serviceID,
		RequestedDate: req.RequestedDate,
		EarliestTime:  req.Earliest,
		LatestTime:    req.Latest,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWaitlistDTO(entry))
}

func (s *Server) handleLeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid waitlist entry id")
		return
	}

	entry, err := s.waitlist.Leave(r.Context(), actor, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWaitlistDTO(entry))
}

type submitReviewRequest struct {
	BusinessID    string `json:"business_id"`
	ReservationID string `json:"reservation_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}

	var req submitReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid business_id")
		return
	}
	var reservationID uuid.UUID
	if req.ReservationID != "" {
		reservationID, err = uuid.Parse(req.ReservationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid reservation_id")
			return
		}
	}

	review, err := s.reviews.Submit(r.Context(), actor, reviews.SubmitInput{
		BusinessID:    businessID,
		ReservationID: reservationID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewDTO(review))
}

type updateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid review id")
		return
	}

	var req updateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}

	review, err := s.reviews.Update(r.Context(), actor, id, req.Rating, req.Comment)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(review))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing actor")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid review id")
		return
	}

	review, err := s.reviews.Delete(r.Context(), actor, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(review))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	businessID, err := uuid.Parse(chi.URLParam(r, "businessID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid business id")
		return
	}

	list, err := s.reviews.ListVisible(r.Context(), businessID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]reviewDTO, 0, len(list))
	for _, review := range list {
		out = append(out, toReviewDTO(review))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": out})
}
