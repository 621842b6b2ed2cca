package response

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-inventory/internal/model"
)

const movementTimeLayout = "2006-01-02 15:04:05"

type Product struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Sku              *string   `json:"sku"`
	InStock          int       `json:"in_stock"`
	Price            *string   `json:"price"`
	PromotionalPrice *string   `json:"promotional_price"`
	Description      *string   `json:"description"`
}

func NewProduct(p model.Product) Product {
	return Product{
		ID:               p.ID,
		Title:            p.Title,
		Sku:              p.Sku,
		InStock:          p.InStock,
		Price:            money(p.Price),
		PromotionalPrice: money(p.PromotionalPrice),
		Description:      p.Description,
	}
}

type StockMovement struct {
	Qty         int    `json:"qty"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

func NewStockMovement(m model.StockMovement) StockMovement {
	return StockMovement{
		Qty:         m.Qty,
		Type:        string(m.Type),
		Description: m.Description,
		CreatedAt:   m.CreatedAt.UTC().Format(movementTimeLayout),
	}
}

// DefaultRegistry knows every resource served by the API.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	Register(r, KindProduct, NewProduct)
	Register(r, KindStockMovement, NewStockMovement)
	return r
}

func money(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}
