package middleware

import (
	"net/http"

	"github.com/StoneFind22/CineMan/internal/infrastructure/logger"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDHeader names the acting POS user. Authentication happens upstream.
	UserIDHeader = "X-User-ID"
	// UserIDKey is the gin context key holding the parsed *uuid.UUID
	UserIDKey = "user_id"
)

// UserAttribution reads the optional X-User-ID header. A present but
// malformed value is rejected with 400; an absent one leaves the request
// anonymous. The acting user is added to the request logger.
func UserAttribution() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.Next()
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "X-User-ID must be a UUID", GetRequestID(c)))
			return
		}

		c.Set(UserIDKey, &userID)
		ctx, reqLogger := logger.WithUserID(c.Request.Context(), logger.FromContext(c.Request.Context()), userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set("logger", reqLogger)
		c.Next()
	}
}

// GetUserID returns the acting user of the request, or nil when anonymous
func GetUserID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(*uuid.UUID); ok {
			return id
		}
	}
	return nil
}
