package inventory

import (
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockPolicy holds the configurable rules applied to every stock movement
type StockPolicy struct {
	// AllowNegativeStock lets consumption drive a balance below zero.
	// The movement still goes through but a NegativeStockDetected event is raised.
	AllowNegativeStock bool
	// EnforceMovementSign rejects RESTOCK/INITIAL with a negative delta and
	// LOSS/SALE with a positive one. ADJUSTMENT accepts either sign.
	EnforceMovementSign bool
}

// DefaultStockPolicy allows negative balances and does not check signs
func DefaultStockPolicy() StockPolicy {
	return StockPolicy{
		AllowNegativeStock:  true,
		EnforceMovementSign: false,
	}
}

// Check validates a delta for a movement type
func (p StockPolicy) Check(t MovementType, delta decimal.Decimal) error {
	if !t.IsValid() {
		return shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Unknown movement type: "+t.String())
	}
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if !p.EnforceMovementSign {
		return nil
	}
	switch t.ExpectedSign() {
	case 1:
		if delta.IsNegative() {
			return shared.NewDomainError("INVALID_SIGN", t.String()+" movements must be positive")
		}
	case -1:
		if delta.IsPositive() {
			return shared.NewDomainError("INVALID_SIGN", t.String()+" movements must be negative")
		}
	}
	return nil
}
