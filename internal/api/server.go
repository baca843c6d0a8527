package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"subtrack/internal/auth"
	"subtrack/internal/config"
	"subtrack/internal/db"
	"subtrack/internal/identity"
	"subtrack/internal/models"
	"subtrack/internal/recommend"
	"subtrack/internal/redis"
	"subtrack/internal/security"
)

// UserDirectory resolves the caller's local identity record.
type UserDirectory interface {
	GetByClerkID(ctx context.Context, clerkID string) (*models.User, error)
}

// SubscriptionRepo is the persistence surface of the subscription routes.
type SubscriptionRepo interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// IdentitySyncer applies verified lifecycle events.
type IdentitySyncer interface {
	Apply(ctx context.Context, ev identity.Event) error
}

// Options carries the server's collaborators. DB and Cache are optional:
// without DB the health check skips the database probe, without Cache the
// handlers fall through to the store and skip redis rate limiting.
type Options struct {
	Users           UserDirectory
	Subscriptions   SubscriptionRepo
	Recommendations recommend.Engine
	Auth            auth.Verifier

	// Signature stays nil when the webhook secret is not configured; the
	// webhook handler then fails closed with a config error.
	Signature identity.SignatureVerifier
	Syncer    IdentitySyncer

	DB    *db.DB
	Cache *redis.Client
}

type Server struct {
	log    *slog.Logger
	cfg    config.Config
	router *gin.Engine

	users  UserDirectory
	subs   SubscriptionRepo
	recs   recommend.Engine
	auth   auth.Verifier
	sig    identity.SignatureVerifier
	syncer IdentitySyncer

	db      *db.DB
	cache   *redis.Client
	hookLim *security.IPLimiter
}

func NewServer(log *slog.Logger, cfg config.Config, opts Options) *Server {
	s := &Server{
		log:     log,
		cfg:     cfg,
		router:  gin.New(),
		users:   opts.Users,
		subs:    opts.Subscriptions,
		recs:    opts.Recommendations,
		auth:    opts.Auth,
		sig:     opts.Signature,
		syncer:  opts.Syncer,
		db:      opts.DB,
		cache:   opts.Cache,
		hookLim: security.NewIPLimiter(rate.Limit(2), 10, 10*time.Minute),
	}

	gin.SetMode(gin.ReleaseMode)
	r := s.router
	r.Use(gin.Recovery())
	r.Use(s.corsMiddleware())
	r.Use(s.loggingMiddleware())
	r.Use(s.rateLimitMiddleware())

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.health)
		v1.GET("/pricing/plans", s.pricingPlans)
		v1.POST("/webhooks/identity", s.webhookRateLimit(), s.identityWebhook)

		authed := v1.Group("")
		authed.Use(s.authMiddleware())
		{
			authed.GET("/dashboard/stats", s.dashboardStats)
			authed.GET("/subscriptions", s.listSubscriptions)
			authed.POST("/subscriptions", s.createSubscription)
			authed.PUT("/subscriptions/:id", s.updateSubscription)
			authed.DELETE("/subscriptions/:id", s.deleteSubscription)
			authed.GET("/recommendations", s.listRecommendations)
		}
	}

	// Legacy routes for backward compatibility
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/dashboard/stats", s.authMiddleware(), s.dashboardStats)
	r.GET("/subscriptions", s.authMiddleware(), s.listSubscriptions)
	r.POST("/subscriptions", s.authMiddleware(), s.createSubscription)
	r.POST("/webhooks/identity", s.webhookRateLimit(), s.identityWebhook)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}
