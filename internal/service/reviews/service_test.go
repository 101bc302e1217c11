package reviews

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tagbanwa/salontime-backend/internal/domain"
	"github.com/tagbanwa/salontime-backend/internal/store"
)

var bizID = uuid.MustParse("00000000-0000-0000-0000-000000000b01")

type memReviews struct {
	reviews []*domain.Review
}

func (m *memReviews) Create(ctx context.Context, review domain.Review) (domain.Review, error) {
	review.ID = uuid.New()
	stored := review
	m.reviews = append(m.reviews, &stored)
	return stored, nil
}

func (m *memReviews) GetByID(ctx context.Context, id uuid.UUID) (domain.Review, error) {
	for _, r := range m.reviews {
		if r.ID == id {
			return *r, nil
		}
	}
	return domain.Review{}, store.ErrNotFound
}

func (m *memReviews) Update(ctx context.Context, id uuid.UUID, rating int, comment string) (domain.Review, error) {
	for _, r := range m.reviews {
		if r.ID == id {
			r.Rating = rating
			r.Comment = comment
			return *r, nil
		}
	}
	return domain.Review{}, store.ErrNotFound
}

func (m *memReviews) SoftDelete(ctx context.Context, id uuid.UUID) (domain.Review, error) {
	for _, r := range m.reviews {
		if r.ID == id {
			r.Visible = false
			return *r, nil
		}
	}
	return domain.Review{}, store.ErrNotFound
}

func (m *memReviews) ListVisibleByBusiness(ctx context.Context, businessID uuid.UUID) ([]domain.Review, error) {
	var out []domain.Review
	for _, r := range m.reviews {
		if r.BusinessID == businessID && r.Visible {
			out = append(out, *r)
		}
	}
	return out, nil
}

type ratingRecorder struct {
	summaries []domain.RatingSummary
}

func (r *ratingRecorder) GetBusiness(ctx context.Context, id uuid.UUID) (domain.Business, error) {
	if id != bizID {
		return domain.Business{}, store.ErrNotFound
	}
	return domain.Business{ID: bizID}, nil
}

func (r *ratingRecorder) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	return domain.Service{}, store.ErrNotFound
}

func (r *ratingRecorder) UpdateRating(ctx context.Context, businessID uuid.UUID, summary domain.RatingSummary) error {
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *ratingRecorder) last(t *testing.T) domain.RatingSummary {
	t.Helper()
	if len(r.summaries) == 0 {
		t.Fatalf("no rating recompute recorded")
	}
	return r.summaries[len(r.summaries)-1]
}

func client(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.ActorRoleClient}
}

func TestSubmit_RecomputesAggregate(t *testing.T) {
	reviews := &memReviews{}
	recorder := &ratingRecorder{}
	svc := NewService(reviews, recorder, nil)

	for i, rating := range []int{5, 4, 3, 5, 2} {
		_, err := svc.Submit(context.Background(), client("c1"), SubmitInput{
			BusinessID: bizID,
			Rating:     rating,
			Comment:    "visit",
		})
		if err != nil {
			t.Fatalf("Submit %d error: %v", i, err)
		}
	}

	got := recorder.last(t)
	if got.Average != 3.8 || got.Count != 5 {
		t.Fatalf("summary = %+v, want {3.8 5}", got)
	}
}

func TestSubmit_RatingOutOfRange(t *testing.T) {
	svc := NewService(&memReviews{}, &ratingRecorder{}, nil)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), client("c1"), SubmitInput{BusinessID: bizID, Rating: rating})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("rating %d: error type = %T, want *ValidationError", rating, err)
		}
	}
}

func TestSubmit_CommentTooLong(t *testing.T) {
	svc := NewService(&memReviews{}, &ratingRecorder{}, nil)

	_, err := svc.Submit(context.Background(), client("c1"), SubmitInput{
		BusinessID: bizID,
		Rating:     4,
		Comment:    strings.Repeat("a", maxCommentRunes+1),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
}

func TestSubmit_NonClientForbidden(t *testing.T) {
	svc := NewService(&memReviews{}, &ratingRecorder{}, nil)

	_, err := svc.Submit(context.Background(), domain.Actor{ID: "o1", Role: domain.ActorRoleOwner, BusinessID: bizID}, SubmitInput{
		BusinessID: bizID, Rating: 5,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSubmit_UnknownBusiness(t *testing.T) {
	svc := NewService(&memReviews{}, &ratingRecorder{}, nil)

	_, err := svc.Submit(context.Background(), client("c1"), SubmitInput{BusinessID: uuid.New(), Rating: 5})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_OnlyAuthorMayEdit(t *testing.T) {
	reviews := &memReviews{}
	recorder := &ratingRecorder{}
	svc := NewService(reviews, recorder, nil)

	created, err := svc.Submit(context.Background(), client("c1"), SubmitInput{BusinessID: bizID, Rating: 5})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	_, err = svc.Update(context.Background(), client("c2"), created.ID, 1, "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	updated, err := svc.Update(context.Background(), client("c1"), created.ID, 3, "changed my mind")
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Rating != 3 {
		t.Fatalf("rating = %d, want 3", updated.Rating)
	}
	if got := recorder.last(t); got.Average != 3 || got.Count != 1 {
		t.Fatalf("summary = %+v, want {3 1}", got)
	}
}

func TestDelete_SoftDeleteRecomputes(t *testing.T) {
	reviews := &memReviews{}
	recorder := &ratingRecorder{}
	svc := NewService(reviews, recorder, nil)

	first, err := svc.Submit(context.Background(), client("c1"), SubmitInput{BusinessID: bizID, Rating: 5})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := svc.Submit(context.Background(), client("c2"), SubmitInput{BusinessID: bizID, Rating: 1}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	deleted, err := svc.Delete(context.Background(), client("c1"), first.ID)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if deleted.Visible {
		t.Fatalf("expected review hidden after delete")
	}
	if got := recorder.last(t); got.Average != 1 || got.Count != 1 {
		t.Fatalf("summary = %+v, want {1 1} after hiding the 5-star review", got)
	}
}

func TestDelete_OwnerScopedToOwnBusiness(t *testing.T) {
	reviews := &memReviews{}
	svc := NewService(reviews, &ratingRecorder{}, nil)

	created, err := svc.Submit(context.Background(), client("c1"), SubmitInput{BusinessID: bizID, Rating: 4})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	otherOwner := domain.Actor{ID: "o9", Role: domain.ActorRoleOwner, BusinessID: uuid.New()}
	if _, err := svc.Delete(context.Background(), otherOwner, created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	owner := domain.Actor{ID: "o1", Role: domain.ActorRoleOwner, BusinessID: bizID}
	deleted, err := svc.Delete(context.Background(), owner, created.ID)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if deleted.Visible {
		t.Fatalf("expected review hidden")
	}
}
