package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
	"github.com/tuanvumaihuynh/product-inventory/pkg/validator"
)

type createProductRequest struct {
	Title            string           `json:"title" validate:"required,max=255"`
	Sku              *string          `json:"sku" validate:"omitempty,max=50"`
	Description      *string          `json:"description" validate:"omitempty,max=25000"`
	Price            *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=9999999"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price" validate:"omitempty,gte=0,lte=9999999"`
	Qty              *int             `json:"qty" validate:"omitempty,min=1,max=50000"`
}

func (req createProductRequest) params() service.CreateProductParams {
	return service.CreateProductParams{
		Sku:              blankToNil(req.Sku),
		Title:            req.Title,
		Description:      req.Description,
		Price:            nullDecimal(req.Price),
		PromotionalPrice: nullDecimal(req.PromotionalPrice),
		Qty:              req.Qty,
	}
}

// updateProductRequest is the PUT body, title stays mandatory.
type updateProductRequest struct {
	Title            string           `json:"title" validate:"required,max=255"`
	Sku              *string          `json:"sku" validate:"omitempty,max=50"`
	Description      *string          `json:"description" validate:"omitempty,max=25000"`
	Price            *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=9999999"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price" validate:"omitempty,gte=0,lte=9999999"`
}

func (req *updateProductRequest) params() service.UpdateProductParams {
	return service.UpdateProductParams{
		Sku:              req.Sku,
		Title:            &req.Title,
		Description:      req.Description,
		Price:            req.Price,
		PromotionalPrice: req.PromotionalPrice,
	}
}

// patchProductRequest is the PATCH body, absent fields stay unchanged.
type patchProductRequest struct {
	Title            *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Sku              *string          `json:"sku" validate:"omitempty,max=50"`
	Description      *string          `json:"description" validate:"omitempty,max=25000"`
	Price            *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lte=9999999"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price" validate:"omitempty,gte=0,lte=9999999"`
}

func (req *patchProductRequest) params() service.UpdateProductParams {
	return service.UpdateProductParams{
		Sku:              req.Sku,
		Title:            req.Title,
		Description:      req.Description,
		Price:            req.Price,
		PromotionalPrice: req.PromotionalPrice,
	}
}

type updateStockRequest struct {
	Qty         *int                    `json:"qty" validate:"required,min=1,max=99999"`
	Type        model.StockMovementType `json:"type" validate:"required,enum"`
	Description string                  `json:"description" validate:"required,max=255"`
}

type updateManyStockItem struct {
	ID  uuid.UUID `json:"id" validate:"required"`
	Qty *int      `json:"qty" validate:"required,min=1,max=99999"`
}

type updateManyStockRequest struct {
	Products    []updateManyStockItem   `json:"products" validate:"required,min=1,max=30,unique=ID,dive"`
	Type        model.StockMovementType `json:"type" validate:"required,enum"`
	Description string                  `json:"description" validate:"required,max=255"`
}

func (req updateManyStockRequest) params() service.UpdateManyStockParams {
	items := make([]service.UpdateManyStockItem, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, service.UpdateManyStockItem{ProductID: p.ID, Qty: p.Qty})
	}

	return service.UpdateManyStockParams{
		Items:       items,
		Type:        req.Type,
		Description: req.Description,
	}
}

// decodeRequest reads a single JSON value from the body into dst and
// validates it. An empty body decodes as an empty object so missing fields
// are reported one by one. Unknown fields are ignored.
func decodeRequest(r *http.Request, v validator.Validator, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return bodyErr(fmt.Errorf("decode request body: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after the json value")
		}
		return bodyErr(fmt.Errorf("decode request body: %w", err))
	}

	if err := v.Validate(dst); err != nil {
		return fmt.Errorf("validate request: %w", err)
	}

	return nil
}

// bodyErr reports an oversized body as 413 and anything else as invalid
// data.
func bodyErr(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.PayloadTooLargeErr.WrapParent(err)
	}
	return apperr.ValidationErr.WrapParent(err)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
