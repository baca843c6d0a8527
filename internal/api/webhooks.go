package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"subtrack/internal/identity"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// identityWebhook ingests user-lifecycle events from the auth provider.
// The provider retries on any non-2xx, so the handler only returns errors
// it wants redelivered: config and persistence failures. Bad signatures and
// malformed payloads are 400s the provider gives up on.
func (s *Server) identityWebhook(c *gin.Context) {
	if s.sig == nil {
		s.log.Error("webhook_secret_not_configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "config_error", "message": "webhook secret not configured"}})
		return
	}

	// all three transport headers must be present before verification
	for _, h := range []string{"svix-id", "svix-timestamp", "svix-signature"} {
		if c.GetHeader(h) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "missing_headers", "message": "missing webhook headers"}})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_body", "message": "unreadable request body"}})
		return
	}

	if err := s.sig.Verify(body, c.Request.Header); err != nil {
		s.log.Warn("webhook_signature_invalid", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_signature", "message": "invalid webhook signature"}})
		return
	}

	ev, err := identity.ParseEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_payload", "message": "unparseable event payload"}})
		return
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	if err := s.syncer.Apply(ctx, ev); err != nil {
		if errors.Is(err, identity.ErrMissingEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "missing_email", "message": "event has no primary email"}})
			return
		}
		s.log.Error("identity_sync_failed", "type", ev.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "sync_failed", "message": "failed to apply event"}})
		return
	}

	if s.cache != nil {
		if _, err := s.cache.Increment(ctx, eventCounterKey(time.Now()), 48*time.Hour); err != nil {
			s.log.Warn("event_counter_failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
