package handler

import (
	"errors"
	"net/http"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/StoneFind22/CineMan/internal/infrastructure/logger"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/dto"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response and records the code for tracing
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InvalidID sends a 400 response for a malformed path identifier
func (h *BaseHandler) InvalidID(c *gin.Context, what string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidID, "Invalid "+what+" ID format")
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	c.Set(middleware.ErrorCodeKey, dto.ErrCodeValidation)
	middleware.HandleValidationError(c, err)
}

// BindJSON binds the request body and answers 400 on failure.
// It returns false when the handler must stop.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.bindError(c, err, dto.ErrCodeInvalidJSON)
		return false
	}
	return true
}

// BindQuery binds query parameters and answers 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.bindError(c, err, dto.ErrCodeBadRequest)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error, code string) {
	if middleware.IsValidationError(err) {
		h.ValidationError(c, err)
		return
	}
	h.Error(c, http.StatusBadRequest, code, err.Error())
}

// ParamUUID parses a UUID path parameter and answers 400 when it is malformed
func (h *BaseHandler) ParamUUID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.InvalidID(c, what)
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID parses an optional UUID query parameter. It returns nil when the
// parameter is absent and answers 400 when it is malformed.
func (h *BaseHandler) QueryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidID, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

// HandleError converts service errors to HTTP responses. Domain errors keep
// their code; storage failures are logged and reported as PERSISTENCE_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	log := logger.GetGinLogger(c)
	if shared.IsPersistenceError(err) {
		log.Error("Persistence failure", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodePersistence, "The operation could not be saved")
		return
	}

	log.Error("Unexpected error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

// actingUser returns the user attributed to the request, if any
func actingUser(c *gin.Context) *uuid.UUID {
	return middleware.GetUserID(c)
}

func pageDefaults(page, pageSize *int) {
	if *page <= 0 {
		*page = defaultPage
	}
	if *pageSize <= 0 {
		*pageSize = defaultPageSize
	}
}
