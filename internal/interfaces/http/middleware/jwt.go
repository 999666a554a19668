package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quoteflow/backend/internal/infrastructure/auth"
	"github.com/quoteflow/backend/internal/infrastructure/logger"
	"github.com/quoteflow/backend/internal/interfaces/http/dto"
)

// Context keys set by Authenticate
const (
	ClaimsKey   = "auth_claims"
	TenantIDKey = "tenant_id"
	UserIDKey   = "user_id"

	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	TenantIDHeader = "X-Tenant-ID"
	UserIDHeader   = "X-User-ID"
)

// AuthConfig configures Authenticate
type AuthConfig struct {
	// JWTService validates bearer tokens
	JWTService *auth.JWTService
	// AllowHeaderFallback accepts X-Tenant-ID and X-User-ID when no bearer
	// token is sent. Only for development; such callers get every permission.
	AllowHeaderFallback bool
	Logger              *zap.Logger
}

// Authenticate resolves the calling tenant and user for internal endpoints
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)

		var claims *auth.Claims
		switch {
		case header != "":
			token, ok := strings.CutPrefix(header, BearerPrefix)
			if !ok || token == "" || cfg.JWTService == nil {
				abortUnauthorized(c, log, auth.ErrInvalidToken)
				return
			}
			validated, err := cfg.JWTService.ValidateAccessToken(token)
			if err != nil {
				abortUnauthorized(c, log, err)
				return
			}
			claims = validated

		case cfg.AllowHeaderFallback:
			fallback, err := claimsFromHeaders(c)
			if err != nil {
				abortUnauthorized(c, log, err)
				return
			}
			claims = fallback

		default:
			abortUnauthorized(c, log, auth.ErrInvalidToken)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TenantIDKey, claims.TenantUUID())
		c.Set(UserIDKey, claims.UserUUID())

		ctx := c.Request.Context()
		ctx, reqLog := logger.WithTenantID(ctx, logger.FromContext(ctx), claims.TenantID)
		if claims.UserID != "" {
			ctx, _ = logger.WithUserID(ctx, reqLog, claims.UserID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func claimsFromHeaders(c *gin.Context) (*auth.Claims, error) {
	tenantID, err := uuid.Parse(c.GetHeader(TenantIDHeader))
	if err != nil || tenantID == uuid.Nil {
		return nil, auth.ErrMissingTenantID
	}
	claims := &auth.Claims{
		TenantID:    tenantID.String(),
		Permissions: []string{"*"},
	}
	if raw := c.GetHeader(UserIDHeader); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, auth.ErrMissingUserID
		}
		claims.UserID = userID.String()
	}
	return claims, nil
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("authentication failed",
		zap.String("route", c.FullPath()),
		zap.Error(err))

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// RequirePermission rejects callers whose claims lack permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.HasPermission(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				"Missing permission "+permission,
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}

// GetClaims returns the caller's claims
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetTenantID returns the caller's tenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetUserID returns the caller's user, or uuid.Nil for service callers
func GetUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
