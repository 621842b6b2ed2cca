package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/response"
	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
	"github.com/tuanvumaihuynh/product-inventory/pkg/validator"
)

type productHandler struct {
	productSvc service.ProductService
	validator  validator.Validator
	registry   *response.Registry
}

func newProductHandler(
	productSvc service.ProductService,
	validator validator.Validator,
	registry *response.Registry,
) *productHandler {
	return &productHandler{
		productSvc: productSvc,
		validator:  validator,
		registry:   registry,
	}
}

func (h *productHandler) ListProducts(r *http.Request) (response.Response, error) {
	params, err := bindListParams(r)
	if err != nil {
		return response.Response{}, err
	}

	page, err := h.productSvc.PaginateProducts(r.Context(), service.PaginateProductsParams{
		Page:    params.Page,
		Limit:   params.Limit,
		Search:  params.Search,
		Filters: params.Filters,
	})
	if err != nil {
		return response.Response{}, fmt.Errorf("product service paginate products: %w", err)
	}

	data, err := response.Page(h.registry, response.KindProduct, page)
	if err != nil {
		return response.Response{}, fmt.Errorf("format products: %w", err)
	}

	return response.OK(data), nil
}

func (h *productHandler) GetProduct(r *http.Request) (response.Response, error) {
	product, err := findPathProduct(r, h.productSvc)
	if err != nil {
		return response.Response{}, err
	}

	return h.item(product, response.OK)
}

func (h *productHandler) CreateProduct(r *http.Request) (response.Response, error) {
	var req createProductRequest
	if err := decodeRequest(r, h.validator, &req); err != nil {
		return response.Response{}, err
	}

	product, err := h.productSvc.CreateProduct(r.Context(), req.params())
	if err != nil {
		return response.Response{}, fmt.Errorf("product service create product: %w", err)
	}

	return h.item(product, func(data any) response.Response {
		return response.Created(response.MsgProductCreated, data)
	})
}

func (h *productHandler) UpdateProduct(r *http.Request) (response.Response, error) {
	return h.update(r, &updateProductRequest{})
}

func (h *productHandler) PatchProduct(r *http.Request) (response.Response, error) {
	return h.update(r, &patchProductRequest{})
}

// productUpdate is a decoded PUT or PATCH body.
type productUpdate interface {
	params() service.UpdateProductParams
}

func (h *productHandler) update(r *http.Request, req productUpdate) (response.Response, error) {
	product, err := findPathProduct(r, h.productSvc)
	if err != nil {
		return response.Response{}, err
	}

	if err := decodeRequest(r, h.validator, req); err != nil {
		return response.Response{}, err
	}

	updated, err := h.productSvc.UpdateProduct(r.Context(), product, req.params())
	if err != nil {
		return response.Response{}, fmt.Errorf("product service update product: %w", err)
	}

	return h.item(updated, func(data any) response.Response {
		return response.Updated(response.MsgProductUpdated, data)
	})
}

func (h *productHandler) DeleteProduct(r *http.Request) (response.Response, error) {
	product, err := findPathProduct(r, h.productSvc)
	if err != nil {
		return response.Response{}, err
	}

	if !h.productSvc.DeleteProduct(r.Context(), product) {
		return response.Response{}, apperr.ProductDeleteFailedErr
	}

	return response.NoContent(), nil
}

func (h *productHandler) item(product model.Product, wrap func(any) response.Response) (response.Response, error) {
	data, err := h.registry.Item(response.KindProduct, product)
	if err != nil {
		return response.Response{}, fmt.Errorf("format product: %w", err)
	}

	return wrap(data), nil
}

// findPathProduct loads the live product named by the {id} path parameter.
func findPathProduct(r *http.Request, productSvc service.ProductService) (model.Product, error) {
	id, err := bindProductID(r)
	if err != nil {
		return model.Product{}, err
	}

	product, err := productSvc.FindProductByID(r.Context(), id, true)
	if err != nil {
		return model.Product{}, fmt.Errorf("product service find product by id: %w", err)
	}

	return *product, nil
}
