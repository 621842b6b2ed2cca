package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type StockMovementType string

const (
	StockMovementIncrease StockMovementType = "increase"
	StockMovementDecrease StockMovementType = "decrease"
)

// Validate implements the "enum" validation tag.
func (t StockMovementType) Validate() error {
	switch t {
	case StockMovementIncrease, StockMovementDecrease:
		return nil
	default:
		return fmt.Errorf("unknown stock movement type: %q", string(t))
	}
}

// Sign is +1 for increases and -1 for decreases.
func (t StockMovementType) Sign() int {
	if t == StockMovementDecrease {
		return -1
	}
	return 1
}

// StockMovement is an immutable ledger entry. Qty is always positive, the
// direction lives in Type.
type StockMovement struct {
	ID          uuid.UUID         `json:"id"`
	ProductID   uuid.UUID         `json:"product_id"`
	Type        StockMovementType `json:"type"`
	Qty         int               `json:"qty"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SignedQty is the movement's contribution to the product stock.
func (m StockMovement) SignedQty() int {
	return m.Type.Sign() * m.Qty
}
