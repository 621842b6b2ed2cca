package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/product-inventory/internal/http/response"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
	"github.com/tuanvumaihuynh/product-inventory/pkg/validator"
)

type stockHandler struct {
	productSvc service.ProductService
	stockSvc   service.StockService
	validator  validator.Validator
	registry   *response.Registry
}

func newStockHandler(
	productSvc service.ProductService,
	stockSvc service.StockService,
	validator validator.Validator,
	registry *response.Registry,
) *stockHandler {
	return &stockHandler{
		productSvc: productSvc,
		stockSvc:   stockSvc,
		validator:  validator,
		registry:   registry,
	}
}

func (h *stockHandler) ListMovements(r *http.Request) (response.Response, error) {
	product, err := findPathProduct(r, h.productSvc)
	if err != nil {
		return response.Response{}, err
	}

	params, err := bindListParams(r)
	if err != nil {
		return response.Response{}, err
	}

	page, err := h.stockSvc.PaginateMovementHistoric(r.Context(), product, service.PaginateMovementsParams{
		Page:    params.Page,
		Limit:   params.Limit,
		Search:  params.Search,
		Filters: params.Filters,
	})
	if err != nil {
		return response.Response{}, fmt.Errorf("stock service paginate movement historic: %w", err)
	}

	data, err := response.Page(h.registry, response.KindStockMovement, page)
	if err != nil {
		return response.Response{}, fmt.Errorf("format stock movements: %w", err)
	}

	return response.OK(data), nil
}

func (h *stockHandler) UpdateStock(r *http.Request) (response.Response, error) {
	product, err := findPathProduct(r, h.productSvc)
	if err != nil {
		return response.Response{}, err
	}

	var req updateStockRequest
	if err := decodeRequest(r, h.validator, &req); err != nil {
		return response.Response{}, err
	}

	updated, err := h.stockSvc.UpdateStock(r.Context(), product, service.UpdateStockParams{
		Qty:         req.Qty,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		return response.Response{}, fmt.Errorf("stock service update stock: %w", err)
	}

	data, err := h.registry.Item(response.KindProduct, updated)
	if err != nil {
		return response.Response{}, fmt.Errorf("format product: %w", err)
	}

	return response.Updated(response.MsgStockUpdated, data), nil
}

func (h *stockHandler) UpdateManyStock(r *http.Request) (response.Response, error) {
	var req updateManyStockRequest
	if err := decodeRequest(r, h.validator, &req); err != nil {
		return response.Response{}, err
	}

	if err := h.stockSvc.UpdateManyStock(r.Context(), req.params()); err != nil {
		return response.Response{}, fmt.Errorf("stock service update many stock: %w", err)
	}

	return response.Updated(response.MsgStockUpdated, nil), nil
}
