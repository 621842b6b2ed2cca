package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID               uuid.UUID           `json:"id"`
	Sku              *string             `json:"sku"`
	Title            string              `json:"title"`
	Description      *string             `json:"description"`
	Price            decimal.NullDecimal `json:"price"`
	PromotionalPrice decimal.NullDecimal `json:"promotional_price"`
	InStock          int                 `json:"in_stock"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	DeletedAt        *time.Time          `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the product has been soft-deleted.
func (p Product) IsDeleted() bool {
	return p.DeletedAt != nil
}
