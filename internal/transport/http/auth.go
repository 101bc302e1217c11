package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tagbanwa/salontime-backend/internal/domain"
)

type contextKey string

const actorContextKey contextKey = "actor"

type authClaims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	BusinessID string `json:"business_id,omitempty"`
}

// requireAuth parses the bearer token and stores the resulting actor in the
// request context. Tokens carry the subject, a role claim, and for owner and
// staff roles the business they belong to.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
			return
		}

		actor, err := s.parseActor(strings.TrimSpace(tokenString))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) parseActor(tokenString string) (domain.Actor, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.jwtSecret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return domain.Actor{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return domain.Actor{}, fmt.Errorf("invalid token")
	}

	role := domain.ActorRole(claims.Role)
	switch role {
	case domain.ActorRoleClient, domain.ActorRoleOwner, domain.ActorRoleStaff:
	default:
		return domain.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	actor := domain.Actor{ID: claims.Subject, Role: role}
	if role != domain.ActorRoleClient {
		businessID, err := uuid.Parse(claims.BusinessID)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("invalid business_id claim: %w", err)
		}
		actor.BusinessID = businessID
	}
	return actor, nil
}

func actorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}
