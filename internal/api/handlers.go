package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"subtrack/internal/models"
	"subtrack/internal/pricing"
	"subtrack/internal/spend"
	"subtrack/internal/store"
)

const statsCacheTTL = 5 * time.Minute

// currentUser resolves the authenticated caller to a local user row.
// Writes the error response itself and returns ok=false when it cannot.
func (s *Server) currentUser(ctx context.Context, c *gin.Context) (*models.User, bool) {
	clerkID := c.GetString("clerk_id")
	if clerkID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "missing session"}})
		return nil, false
	}

	u, err := s.users.GetByClerkID(ctx, clerkID)
	if errors.Is(err, store.ErrNotFound) {
		// the identity webhook has not caught up yet
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "user_not_found", "message": "user not found"}})
		return nil, false
	}
	if err != nil {
		s.log.Error("user_lookup_failed", "clerk_id", clerkID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to resolve user"}})
		return nil, false
	}
	return u, true
}

func (s *Server) dashboardStats(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	clerkID := c.GetString("clerk_id")

	// check cache
	cacheKey := statsCacheKey(clerkID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
	}

	user, ok := s.currentUser(ctx, c)
	if !ok {
		return
	}

	active, err := s.subs.ListActiveByUser(ctx, user.ID)
	if err != nil {
		s.log.Error("active_subscriptions_load_failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to fetch stats"}})
		return
	}

	summary := spend.Summarize(active)

	// recommendation count is best effort: spend totals must not fail
	// because the recommendations table is having a bad day
	unread, err := s.recs.UnreadCount(ctx, user.ID)
	if err != nil {
		s.log.Warn("recommendation_count_failed", "user_id", user.ID, "error", err)
		unread = 0
	}

	recent := active
	if len(recent) > 4 {
		recent = recent[:4]
	}

	stats := models.DashboardStats{
		TotalMonthlySpending: summary.TotalMonthly,
		TotalYearlySpending:  summary.TotalYearly,
		ActiveSubscriptions:  summary.ActiveCount,
		PotentialSavings:     s.recs.PotentialSavings(summary.TotalMonthly),
		AIRecommendations:    unread,
		RecentSubscriptions:  recent,
		SpendingByCategory:   summary.ByCategory,
	}

	response := gin.H{"stats": stats}

	if s.cache != nil {
		if jsonData, err := json.Marshal(response); err == nil {
			_ = s.cache.Set(ctx, cacheKey, string(jsonData), statsCacheTTL)
		}
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) listSubscriptions(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	user, ok := s.currentUser(ctx, c)
	if !ok {
		return
	}

	subs, err := s.subs.ListByUser(ctx, user.ID)
	if err != nil {
		s.log.Error("subscriptions_load_failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to fetch subscriptions"}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// subscriptionInput is the shared request body for create and update.
// Pointers distinguish "absent" from zero values.
type subscriptionInput struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Category        *string  `json:"category"`
	Provider        *string  `json:"provider"`
	URL             *string  `json:"url"`
	Price           *float64 `json:"price"`
	Currency        *string  `json:"currency"`
	BillingCycle    *string  `json:"billing_cycle"`
	Status          *string  `json:"status"`
	NextBillingDate *string  `json:"next_billing_date"`
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

func parseBillingDate(raw string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("unparseable date %q", raw)
}

func (s *Server) createSubscription(c *gin.Context) {
	var in subscriptionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": "malformed json body"}})
		return
	}

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Price == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": "name and price are required"}})
		return
	}
	if !validPrice(*in.Price) {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_price", "message": "price must be a non-negative finite number"}})
		return
	}

	sub := models.Subscription{
		Name:         strings.TrimSpace(*in.Name),
		Description:  in.Description,
		Category:     models.CategoryOther,
		Provider:     in.Provider,
		URL:          in.URL,
		Price:        *in.Price,
		Currency:     "USD",
		BillingCycle: models.CycleMonthly,
		Status:       models.StatusActive,
	}

	if in.Category != nil && *in.Category != "" {
		cat := models.Category(*in.Category)
		if !models.ValidCategory(cat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_category", "message": "unknown category"}})
			return
		}
		sub.Category = cat
	}
	if in.Currency != nil && *in.Currency != "" {
		sub.Currency = *in.Currency
	}
	if in.BillingCycle != nil && *in.BillingCycle != "" {
		cycle := models.BillingCycle(*in.BillingCycle)
		if !models.ValidBillingCycle(cycle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_billing_cycle", "message": "unknown billing cycle"}})
			return
		}
		sub.BillingCycle = cycle
	}
	if in.NextBillingDate != nil && *in.NextBillingDate != "" {
		t, err := parseBillingDate(*in.NextBillingDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_date", "message": "next_billing_date must be RFC 3339 or YYYY-MM-DD"}})
			return
		}
		sub.NextBillingDate = t
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	user, ok := s.currentUser(ctx, c)
	if !ok {
		return
	}
	sub.UserID = user.ID

	if err := s.subs.Create(ctx, &sub); err != nil {
		s.log.Error("subscription_create_failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to create subscription"}})
		return
	}

	s.invalidateStats(ctx, user.ClerkID)

	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

func (s *Server) updateSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_id", "message": "subscription id must be a uuid"}})
		return
	}

	var in subscriptionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": "malformed json body"}})
		return
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	user, ok := s.currentUser(ctx, c)
	if !ok {
		return
	}

	sub, err := s.subs.GetByID(ctx, id, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "subscription not found"}})
		return
	}
	if err != nil {
		s.log.Error("subscription_load_failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to load subscription"}})
		return
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": "name cannot be empty"}})
			return
		}
		sub.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		sub.Description = in.Description
	}
	if in.Provider != nil {
		sub.Provider = in.Provider
	}
	if in.URL != nil {
		sub.URL = in.URL
	}
	if in.Price != nil {
		if !validPrice(*in.Price) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_price", "message": "price must be a non-negative finite number"}})
			return
		}
		sub.Price = *in.Price
	}
	if in.Currency != nil && *in.Currency != "" {
		sub.Currency = *in.Currency
	}
	if in.Category != nil {
		cat := models.Category(*in.Category)
		if !models.ValidCategory(cat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_category", "message": "unknown category"}})
			return
		}
		sub.Category = cat
	}
	if in.BillingCycle != nil {
		cycle := models.BillingCycle(*in.BillingCycle)
		if !models.ValidBillingCycle(cycle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_billing_cycle", "message": "unknown billing cycle"}})
			return
		}
		sub.BillingCycle = cycle
	}
	if in.Status != nil {
		st := models.SubscriptionStatus(*in.Status)
		if !models.ValidStatus(st) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_status", "message": "unknown status"}})
			return
		}
		sub.Status = st
	}
	if in.NextBillingDate != nil {
		if *in.NextBillingDate == "" {
			sub.NextBillingDate = nil
		} else {
			t, err := parseBillingDate(*in.NextBillingDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_date", "message": "next_billing_date must be RFC 3339 or YYYY-MM-DD"}})
				return
			}
			sub.NextBillingDate = t
		}
	}

	if err := s.subs.Update(ctx, sub); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "subscription not found"}})
			return
		}
		s.log.Error("subscription_update_failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to update subscription"}})
		return
	}

	s.invalidateStats(ctx, user.ClerkID)

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (s *Server) deleteSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_id", "message": "subscription id must be a uuid"}})
		return
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	user, ok := s.currentUser(ctx, c)
	if !ok {
		return
	}

	if err := s.subs.Delete(ctx, id, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "subscription not found"}})
			return
		}
		s.log.Error("subscription_delete_failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to delete subscription"}})
		return
	}

	s.invalidateStats(ctx, user.ClerkID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listRecommendations(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	user, ok := s.currentUser(ctx, c)
	if !ok {
		return
	}

	recs, err := s.recs.ListForUser(ctx, user.ID)
	if err != nil {
		s.log.Error("recommendations_load_failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "db_error", "message": "failed to fetch recommendations"}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (s *Server) pricingPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": pricing.Plans()})
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	dbStatus := "connected"
	if s.db != nil {
		if err := s.db.Pool.Ping(ctx); err != nil {
			dbStatus = "disconnected"
		}
	}

	redisStatus := "connected"
	if s.cache != nil {
		if err := s.cache.RDB().Ping(ctx).Err(); err != nil {
			redisStatus = "disconnected"
		}
	}

	var eventsProcessedToday int64
	if s.cache != nil {
		if count, err := s.cache.GetInt(ctx, eventCounterKey(time.Now())); err == nil {
			eventsProcessedToday = count
		}
	}

	status := "healthy"
	if dbStatus != "connected" || redisStatus != "connected" {
		status = "unhealthy"
	}

	response := gin.H{
		"status":                 status,
		"database":               dbStatus,
		"redis":                  redisStatus,
		"events_processed_today": eventsProcessedToday,
	}

	if status == "unhealthy" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

func statsCacheKey(clerkID string) string {
	return "dashboard:stats:" + clerkID
}

func eventCounterKey(t time.Time) string {
	return "identity:events:" + t.Format("2006-01-02")
}

func (s *Server) invalidateStats(ctx context.Context, clerkID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey(clerkID)); err != nil {
		s.log.Warn("stats_cache_invalidate_failed", "clerk_id", clerkID, "error", err)
	}
}
