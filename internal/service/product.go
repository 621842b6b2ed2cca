package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/event"
	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/search"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
	"github.com/tuanvumaihuynh/product-inventory/pkg/zerror"
)

// InitialMovementDescription describes the movement seeding a new product.
const InitialMovementDescription = "Product creation"

type ListProductsParams struct {
	// Limit caps the result, zero or less means unbounded.
	Limit int
	// Search is matched against sku, title and description.
	Search string
	// Filters holds the sf_ prefixed advanced filters. They are applied only
	// when at least one carries a value.
	Filters   url.Values
	Customize repository.CustomizeFunc
}

type PaginateProductsParams struct {
	Page      int
	Limit     int
	Search    string
	Filters   url.Values
	Customize repository.CustomizeFunc
}

type CreateProductParams struct {
	Sku              *string
	Title            string
	Description      *string
	Price            decimal.NullDecimal
	PromotionalPrice decimal.NullDecimal
	// Qty seeds the stock, defaults to 1.
	Qty *int
}

// UpdateProductParams changes only the non-nil fields. An empty Sku removes
// the product's sku.
type UpdateProductParams struct {
	Sku              *string
	Title            *string
	Description      *string
	Price            *decimal.Decimal
	PromotionalPrice *decimal.Decimal
}

type ProductService interface {
	// FindProductByID returns nil without error when the product does not
	// exist and mustExist is false.
	FindProductByID(ctx context.Context, id uuid.UUID, mustExist bool) (*model.Product, error)
	FindProductBySku(ctx context.Context, sku string, mustExist bool) (*model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	PaginateProducts(ctx context.Context, params PaginateProductsParams) (model.Page[model.Product], error)
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	UpdateProduct(ctx context.Context, product model.Product, params UpdateProductParams) (model.Product, error)
	// DeleteProduct soft deletes the product. Failures are logged and
	// reported as false.
	DeleteProduct(ctx context.Context, product model.Product) bool
}

type productService struct {
	logger        *slog.Logger
	db            db.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	ledger        ledger
}

func NewProductService(
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ProductService {
	return &productService{
		logger:        logger.With(slog.String("service", "product")),
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		ledger: ledger{
			productRepo:   productRepo,
			movementRepo:  movementRepo,
			outboxMsgRepo: outboxMsgRepo,
		},
	}
}

func (s *productService) FindProductByID(ctx context.Context, id uuid.UUID, mustExist bool) (*model.Product, error) {
	return s.findProduct(ctx, repository.FindProductParams{ID: &id}, mustExist)
}

func (s *productService) FindProductBySku(ctx context.Context, sku string, mustExist bool) (*model.Product, error) {
	return s.findProduct(ctx, repository.FindProductParams{Sku: &sku}, mustExist)
}

func (s *productService) findProduct(ctx context.Context, params repository.FindProductParams, mustExist bool) (*model.Product, error) {
	product, err := s.productRepo.FindProduct(ctx, params)
	if err != nil {
		if db.IsNoRows(err) {
			if mustExist {
				return nil, apperr.ProductNotFoundErr.WrapParent(err)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("product repository find product: %w", err)
	}

	return &product, nil
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	products, err := s.productRepo.ListProducts(ctx, repository.ListProductsParams{
		ListQuery: repository.ListQuery{
			Search:    searchInput(params.Search, params.Filters),
			Customize: params.Customize,
		},
		Limit: params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}

	return products, nil
}

func (s *productService) PaginateProducts(ctx context.Context, params PaginateProductsParams) (model.Page[model.Product], error) {
	page, err := s.productRepo.PaginateProducts(ctx, repository.PaginateProductsParams{
		ListQuery: repository.ListQuery{
			Search:    searchInput(params.Search, params.Filters),
			Customize: params.Customize,
		},
		Page:    params.Page,
		PerPage: params.Limit,
	})
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("product repository paginate products: %w", err)
	}

	return page, nil
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if err := s.checkSkuAvailable(ctx, params.Sku, uuid.Nil); err != nil {
		return model.Product{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	product := model.Product{
		ID:               id,
		Sku:              params.Sku,
		Title:            params.Title,
		Description:      params.Description,
		Price:            params.Price,
		PromotionalPrice: params.PromotionalPrice,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	entry := stockEntry{
		Qty:         normalizeQty(params.Qty),
		Type:        model.StockMovementIncrease,
		Description: InitialMovementDescription,
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		var err error
		product, err = s.ledger.record(ctx, db, product, entry, now)
		if err != nil {
			return fmt.Errorf("record initial movement: %w", err)
		}

		if err := writeEvent(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductCreated, product.ID,
			event.NewProductEvent(product, now)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		return model.Product{}, mapWriteErr(err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, product model.Product, params UpdateProductParams) (model.Product, error) {
	if err := s.checkSkuAvailable(ctx, params.Sku, product.ID); err != nil {
		return model.Product{}, err
	}

	var updated model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		productRepo := s.productRepo.WithDB(db)

		locked, err := productRepo.LockProducts(ctx, []uuid.UUID{product.ID})
		if err != nil {
			return fmt.Errorf("product repository lock products: %w", err)
		}
		if len(locked) == 0 {
			return apperr.ProductNotFoundErr
		}

		updated = params.apply(locked[0])
		updated.UpdatedAt = time.Now()

		if err := productRepo.UpdateProduct(ctx, updated); err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		if err := writeEvent(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductUpdated, updated.ID,
			event.NewProductEvent(updated, updated.UpdatedAt)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		return model.Product{}, mapWriteErr(err)
	}

	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, product model.Product) bool {
	now := time.Now()

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.productRepo.
			WithDB(db).
			SoftDeleteProduct(ctx, product.ID, now); err != nil {
			return fmt.Errorf("product repository soft delete product: %w", err)
		}

		product.DeletedAt = &now
		if err := writeEvent(ctx, s.outboxMsgRepo.WithDB(db), event.TopicProductDeleted, product.ID,
			event.NewProductEvent(product, now)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "error deleting product",
			slog.String("product_id", product.ID.String()),
			slog.Any("error", err),
		)
		return false
	}

	return true
}

// checkSkuAvailable fails when another live product owns sku.
func (s *productService) checkSkuAvailable(ctx context.Context, sku *string, owner uuid.UUID) error {
	if sku == nil || *sku == "" {
		return nil
	}

	existing, err := s.FindProductBySku(ctx, *sku, false)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != owner {
		return apperr.SkuTakenErr
	}

	return nil
}

func (p UpdateProductParams) apply(product model.Product) model.Product {
	if p.Sku != nil {
		// An empty sku clears it.
		product.Sku = p.Sku
		if *p.Sku == "" {
			product.Sku = nil
		}
	}
	if p.Title != nil {
		product.Title = *p.Title
	}
	if p.Description != nil {
		product.Description = p.Description
	}
	if p.Price != nil {
		product.Price = decimal.NewNullDecimal(*p.Price)
	}
	if p.PromotionalPrice != nil {
		product.PromotionalPrice = decimal.NewNullDecimal(*p.PromotionalPrice)
	}
	return product
}

// mapWriteErr turns a sku unique violation that raced past
// checkSkuAvailable into a conflict.
func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err, repository.ProductSkuConstraint) {
		return apperr.ConflictErr.WrapParent(err)
	}

	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		return err
	}

	return fmt.Errorf("db with tx: %w", err)
}

// searchInput enables the advanced filters only when one of them carries a
// value.
func searchInput(term string, filters url.Values) search.Input {
	in := search.Input{Term: term, Params: filters}

	for name, values := range filters {
		if !strings.HasPrefix(name, search.DefaultPrefix) {
			continue
		}
		for _, v := range values {
			if v != "" {
				in.Advanced = true
				return in
			}
		}
	}

	return in
}
