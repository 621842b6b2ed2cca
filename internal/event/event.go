package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-inventory/internal/model"
)

const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
	TopicStockUpdated   = "stock.updated"
)

// Topics lists every topic published through the outbox.
var Topics = []string{
	TopicProductCreated,
	TopicProductUpdated,
	TopicProductDeleted,
	TopicStockUpdated,
}

// ProductEvent is the payload of the product.* topics.
type ProductEvent struct {
	ProductID        string     `json:"product_id"`
	Sku              *string    `json:"sku"`
	Title            string     `json:"title"`
	Price            *string    `json:"price"`
	PromotionalPrice *string    `json:"promotional_price"`
	InStock          int        `json:"in_stock"`
	OccurredAt       time.Time  `json:"occurred_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

func NewProductEvent(p model.Product, occurredAt time.Time) ProductEvent {
	ev := ProductEvent{
		ProductID:  p.ID.String(),
		Sku:        p.Sku,
		Title:      p.Title,
		InStock:    p.InStock,
		OccurredAt: occurredAt,
		DeletedAt:  p.DeletedAt,
	}
	if p.Price.Valid {
		s := p.Price.Decimal.StringFixed(2)
		ev.Price = &s
	}
	if p.PromotionalPrice.Valid {
		s := p.PromotionalPrice.Decimal.StringFixed(2)
		ev.PromotionalPrice = &s
	}
	return ev
}

// StockUpdatedEvent is published once per recorded movement.
type StockUpdatedEvent struct {
	ProductID   string                  `json:"product_id"`
	MovementID  string                  `json:"movement_id"`
	Type        model.StockMovementType `json:"type"`
	Qty         int                     `json:"qty"`
	Description string                  `json:"description"`
	InStock     int                     `json:"in_stock"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

func NewStockUpdatedEvent(m model.StockMovement, inStock int) StockUpdatedEvent {
	return StockUpdatedEvent{
		ProductID:   m.ProductID.String(),
		MovementID:  m.ID.String(),
		Type:        m.Type,
		Qty:         m.Qty,
		Description: m.Description,
		InStock:     inStock,
		OccurredAt:  m.CreatedAt,
	}
}

// PartitionKey keeps every event of one product on the same partition.
func PartitionKey(productID uuid.UUID) *string {
	key := productID.String()
	return &key
}
