package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shegerhomes/gebeya/internal/actorcontext"
	obscontext "github.com/shegerhomes/gebeya/internal/observability/context"
	"github.com/shegerhomes/gebeya/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	headerActorID   = "X-Actor-Id"
	headerActorRole = "X-Actor-Role"
)

// ActorMiddleware resolves the acting identity from the gateway headers.
// Requests without identity headers stay anonymous; role-gated handlers
// reject them via RequireCompany or RequireCustomer.
func (s *Server) ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := strings.TrimSpace(c.GetHeader(headerActorID))
		rawRole := strings.TrimSpace(c.GetHeader(headerActorRole))
		if rawID == "" || rawRole == "" {
			c.Next()
			return
		}

		actorID, err := snowflake.ParseString(rawID)
		if err != nil || actorID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		role, ok := actorcontext.ParseRole(rawRole)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := actorcontext.WithActor(c.Request.Context(), actorcontext.Actor{ID: actorID, Role: role})
		ctx = obscontext.WithActor(ctx, string(role), actorID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := actorcontext.CompanyIDFromContext(c.Request.Context()); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func (s *Server) RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := actorcontext.CustomerIDFromContext(c.Request.Context()); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// PaymentCallbackRateLimit throttles the public callback endpoint per
// provider. With no limiter configured every request passes.
func (s *Server) PaymentCallbackRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.callbackLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		provider := c.Param("provider")

		allowed, err := s.callbackLimiter.AllowProvider(ctx, provider)
		if err != nil {
			logger.FromContext(ctx).Warn("payment callback rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			s.obsMetrics.RecordRateLimitDenied(ctx, "payments.callback", "provider-rate")
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		s.obsMetrics.RecordRateLimitAllowed(ctx, "payments.callback")
		c.Next()
	}
}
