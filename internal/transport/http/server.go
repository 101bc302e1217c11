package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/tagbanwa/salontime-backend/internal/service/reviews"
	"github.com/tagbanwa/salontime-backend/internal/service/scheduling"
	"github.com/tagbanwa/salontime-backend/internal/service/waitlist"
)

// Server is the HTTP surface over the scheduling, waitlist, and review
// services. Slot and review listings are public; every mutation requires a
// bearer token.
type Server struct {
	scheduling *scheduling.Service
	waitlist   *waitlist.Service
	reviews    *reviews.Service
	db         *bun.DB
	jwtSecret  []byte
	log        *slog.Logger
	limiter    *rateLimiter
	timeout    time.Duration
}

type ServerConfig struct {
	JWTSecret          string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
}

// NewServer wires the services behind a router. redisClient may be nil, in
// which case requests are not rate limited.
func NewServer(
	schedulingSvc *scheduling.Service,
	waitlistSvc *waitlist.Service,
	reviewsSvc *reviews.Service,
	db *bun.DB,
	redisClient *redis.Client,
	cfg ServerConfig,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		scheduling: schedulingSvc,
		waitlist:   waitlistSvc,
		reviews:    reviewsSvc,
		db:         db,
		jwtSecret:  []byte(cfg.JWTSecret),
		log:        log.With(slog.String("component", "http")),
		timeout:    cfg.RequestTimeout,
	}
	if redisClient != nil {
		s.limiter = newRateLimiter(redisClient, cfg.RateLimitPerMinute, s.log)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/businesses/{businessID}/slots", s.handleListSlots)
		r.Get("/businesses/{businessID}/reviews", s.handleListReviews)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/businesses/{businessID}/reservations", s.handleListReservations)
			r.Post("/reservations", s.handleCreateReservation)
			r.Post("/reservations/{id}/reschedule", s.handleReschedule)
			r.Post("/reservations/{id}/status", s.handleUpdateStatus)

			r.Post("/waitlist", s.handleJoinWaitlist)
			r.Delete("/waitlist/{id}", s.handleLeaveWaitlist)

			r.Post("/reviews", s.handleSubmitReview)
			r.Patch("/reviews/{id}", s.handleUpdateReview)
			r.Delete("/reviews/{id}", s.handleDeleteReview)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
