package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tagbanwa/salontime-backend/internal/domain"
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

// ErrForbidden is returned when an actor touches a review they may not edit.
var ErrForbidden = errors.New("forbidden")

const maxCommentRunes = 4000

type Service struct {
	reviews    store.ReviewStore
	businesses store.BusinessStore
	log        *slog.Logger
}

func NewService(reviews store.ReviewStore, businesses store.BusinessStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		reviews:    reviews,
		businesses: businesses,
		log:        log.With(slog.String("component", "reviews")),
	}
}

type SubmitInput struct {
	BusinessID    uuid.UUID
	ReservationID uuid.UUID
	Rating        int
	Comment       string
}

// Submit creates a review and synchronously recomputes the business's rating
// summary.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, in SubmitInput) (domain.Review, error) {
	if actor.Role != domain.ActorRoleClient || actor.ID == "" {
		return domain.Review{}, ErrForbidden
	}
	comment, err := normalizeReview(in.Rating, in.Comment)
	if err != nil {
		return domain.Review{}, err
	}

	if _, err := s.businesses.GetBusiness(ctx, in.BusinessID); err != nil {
		return domain.Review{}, err
	}

	review, err := s.reviews.Create(ctx, domain.Review{
		BusinessID:    in.BusinessID,
		ClientID:      actor.ID,
		ReservationID: in.ReservationID,
		Rating:        in.Rating,
		Comment:       comment,
		Visible:       true,
	})
	if err != nil {
		return domain.Review{}, err
	}

	s.recompute(ctx, in.BusinessID)
	return review, nil
}

// Update edits the client's own review and recomputes the aggregate.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, rating int, comment string) (domain.Review, error) {
	comment, err := normalizeReview(rating, comment)
	if err != nil {
		return domain.Review{}, err
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	if actor.Role != domain.ActorRoleClient || review.ClientID != actor.ID {
		return domain.Review{}, ErrForbidden
	}

	updated, err := s.reviews.Update(ctx, id, rating, comment)
	if err != nil {
		return domain.Review{}, err
	}

	s.recompute(ctx, review.BusinessID)
	return updated, nil
}

// Delete soft-deletes a review. The owning client may retract their own
// review; the business owner may hide reviews on their business.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}

	switch actor.Role {
	case domain.ActorRoleClient:
		if review.ClientID != actor.ID {
			return domain.Review{}, ErrForbidden
		}
	case domain.ActorRoleOwner:
		if actor.BusinessID != review.BusinessID {
			return domain.Review{}, ErrForbidden
		}
	default:
		return domain.Review{}, ErrForbidden
	}

	deleted, err := s.reviews.SoftDelete(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}

	s.recompute(ctx, review.BusinessID)
	return deleted, nil
}

func (s *Service) ListVisible(ctx context.Context, businessID uuid.UUID) ([]domain.Review, error) {
	if _, err := s.businesses.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	return s.reviews.ListVisibleByBusiness(ctx, businessID)
}

// recompute projects the rating summary from scratch and writes it to the
// business row. The recompute is idempotent, so a failure here leaves a stale
// aggregate that the next review write repairs; it never unwinds the review
// mutation that already committed.
func (s *Service) recompute(ctx context.Context, businessID uuid.UUID) {
	visible, err := s.reviews.ListVisibleByBusiness(ctx, businessID)
	if err != nil {
		s.log.Warn("rating recompute read failed", slog.String("business_id", businessID.String()), slog.Any("err", err))
		return
	}
	summary := domain.ProjectRating(visible)
	if err := s.businesses.UpdateRating(ctx, businessID, summary); err != nil {
		s.log.Warn("rating recompute write failed", slog.String("business_id", businessID.String()), slog.Any("err", err))
	}
}

func normalizeReview(rating int, comment string) (string, error) {
	if rating < 1 || rating > 5 {
		return "", validationError("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentRunes {
		return "", validationError("comment too long")
	}
	return comment, nil
}
