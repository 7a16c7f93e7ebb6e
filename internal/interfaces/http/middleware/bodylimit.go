package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/StoneFind22/CineMan/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at maxBytes. A declared Content-Length
// over the limit is refused before any handler runs. Chunked import
// uploads carry no length, so the body is also wrapped and the overflow
// surfaces to the handler as an error matched by BodyTooLarge.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	msg := fmt.Sprintf("Request body exceeds the %d byte limit", maxBytes)
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				msg,
				GetRequestID(c),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// BodyTooLarge reports whether err came from reading past the BodyLimit cap
func BodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
