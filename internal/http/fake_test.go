package http_test

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
)

type fakeProductService struct {
	products map[uuid.UUID]model.Product

	createErr  error
	deleteFail bool

	lastPage   service.PaginateProductsParams
	lastCreate service.CreateProductParams
	lastUpdate service.UpdateProductParams
}

var _ service.ProductService = (*fakeProductService)(nil)

func newFakeProductService(products ...model.Product) *fakeProductService {
	s := &fakeProductService{products: map[uuid.UUID]model.Product{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeProductService) FindProductByID(_ context.Context, id uuid.UUID, mustExist bool) (*model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		if mustExist {
			return nil, apperr.ProductNotFoundErr
		}
		return nil, nil
	}
	return &p, nil
}

func (s *fakeProductService) FindProductBySku(context.Context, string, bool) (*model.Product, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeProductService) ListProducts(context.Context, service.ListProductsParams) ([]model.Product, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeProductService) PaginateProducts(_ context.Context, params service.PaginateProductsParams) (model.Page[model.Product], error) {
	s.lastPage = params

	items := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		items = append(items, p)
	}
	return model.Page[model.Product]{
		Items:       items,
		CurrentPage: params.Page,
		PerPage:     params.Limit,
		Total:       int64(len(items)),
	}, nil
}

func (s *fakeProductService) CreateProduct(_ context.Context, params service.CreateProductParams) (model.Product, error) {
	s.lastCreate = params
	if s.createErr != nil {
		return model.Product{}, s.createErr
	}

	qty := 1
	if params.Qty != nil {
		qty = *params.Qty
	}
	p := model.Product{
		ID:               uuid.New(),
		Sku:              params.Sku,
		Title:            params.Title,
		Description:      params.Description,
		Price:            params.Price,
		PromotionalPrice: params.PromotionalPrice,
		InStock:          qty,
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeProductService) UpdateProduct(_ context.Context, product model.Product, params service.UpdateProductParams) (model.Product, error) {
	s.lastUpdate = params
	if params.Title != nil {
		product.Title = *params.Title
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *fakeProductService) DeleteProduct(_ context.Context, product model.Product) bool {
	if s.deleteFail {
		return false
	}
	delete(s.products, product.ID)
	return true
}

type fakeStockService struct {
	movements []model.StockMovement

	manyErr error

	lastUpdate service.UpdateStockParams
	lastMany   service.UpdateManyStockParams
	lastPage   service.PaginateMovementsParams
}

var _ service.StockService = (*fakeStockService)(nil)

func (s *fakeStockService) GetAvailable(_ context.Context, product model.Product) int {
	return product.InStock
}

func (s *fakeStockService) GetLedgerAvailable(_ context.Context, product model.Product) (int, error) {
	return product.InStock, nil
}

func (s *fakeStockService) UpdateStock(_ context.Context, product model.Product, params service.UpdateStockParams) (model.Product, error) {
	s.lastUpdate = params
	product.InStock += params.Type.Sign() * *params.Qty
	return product, nil
}

func (s *fakeStockService) UpdateManyStock(_ context.Context, params service.UpdateManyStockParams) error {
	s.lastMany = params
	return s.manyErr
}

func (s *fakeStockService) ListMovementHistoric(context.Context, model.Product, service.ListMovementsParams) ([]model.StockMovement, error) {
	return s.movements, nil
}

func (s *fakeStockService) PaginateMovementHistoric(_ context.Context, _ model.Product, params service.PaginateMovementsParams) (model.Page[model.StockMovement], error) {
	s.lastPage = params
	return model.Page[model.StockMovement]{
		Items:       s.movements,
		CurrentPage: params.Page,
		PerPage:     params.Limit,
		Total:       int64(len(s.movements)),
	}, nil
}

type fakeHealth struct {
	err error
}

func (h fakeHealth) IsHealthy(context.Context) (bool, error) {
	return h.err == nil, h.err
}
