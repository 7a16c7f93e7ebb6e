package handler

import "github.com/StoneFind22/CineMan/internal/interfaces/http/dto"

// Swagger envelopes. Handlers never build these directly; they mirror
// dto.Response with a concrete data type so swag can render the schema.

// APIResponse wraps a single resource or a non-paged collection
// (recipes, the movements of one sale).
type APIResponse[T any] struct {
	Success bool `json:"success" example:"true"`
	Data    T    `json:"data,omitempty"`
}

// PageResponse wraps a paged listing returned through SuccessWithMeta.
// Meta is always present.
type PageResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    []T       `json:"data"`
	Meta    *dto.Meta `json:"meta"`
}

// ErrorResponse is the failure envelope. Error.Code carries the domain
// code (INSUFFICIENT_STOCK, SALE_ALREADY_APPLIED, PLAN_ALREADY_APPLIED...).
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
