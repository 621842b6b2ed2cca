package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
)

type UpdateStockParams struct {
	// Qty defaults to 1, its sign is ignored.
	Qty *int
	// Type defaults to increase.
	Type model.StockMovementType
	// Description defaults to DefaultStockDescription.
	Description string
}

type UpdateManyStockItem struct {
	ProductID uuid.UUID
	Qty       *int
}

type UpdateManyStockParams struct {
	Items       []UpdateManyStockItem
	Type        model.StockMovementType
	Description string
}

type ListMovementsParams struct {
	Limit     int
	Search    string
	Filters   url.Values
	Customize repository.CustomizeFunc
}

type PaginateMovementsParams struct {
	Page      int
	Limit     int
	Search    string
	Filters   url.Values
	Customize repository.CustomizeFunc
}

type StockService interface {
	// GetAvailable returns the cached stock counter of the product.
	GetAvailable(ctx context.Context, product model.Product) int
	// GetLedgerAvailable folds the movement ledger of the product. It always
	// equals GetAvailable on a fresh read.
	GetLedgerAvailable(ctx context.Context, product model.Product) (int, error)
	UpdateStock(ctx context.Context, product model.Product, params UpdateStockParams) (model.Product, error)
	// UpdateManyStock applies every item or none of them.
	UpdateManyStock(ctx context.Context, params UpdateManyStockParams) error
	ListMovementHistoric(ctx context.Context, product model.Product, params ListMovementsParams) ([]model.StockMovement, error)
	PaginateMovementHistoric(ctx context.Context, product model.Product, params PaginateMovementsParams) (model.Page[model.StockMovement], error)
}

type stockService struct {
	logger       *slog.Logger
	db           db.DB
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	ledger       ledger
}

func NewStockService(
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) StockService {
	return &stockService{
		logger:       logger.With(slog.String("service", "stock")),
		db:           db,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		ledger: ledger{
			productRepo:   productRepo,
			movementRepo:  movementRepo,
			outboxMsgRepo: outboxMsgRepo,
		},
	}
}

func (s *stockService) GetAvailable(_ context.Context, product model.Product) int {
	return product.InStock
}

func (s *stockService) GetLedgerAvailable(ctx context.Context, product model.Product) (int, error) {
	sum, err := s.movementRepo.SumSignedQty(ctx, product.ID)
	if err != nil {
		return 0, fmt.Errorf("stock movement repository sum signed qty: %w", err)
	}

	return sum, nil
}

func (s *stockService) UpdateStock(ctx context.Context, product model.Product, params UpdateStockParams) (model.Product, error) {
	entry := normalizeEntry(params.Qty, params.Type, params.Description)

	var updated model.Product
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		locked, err := s.productRepo.
			WithDB(db).
			LockProducts(ctx, []uuid.UUID{product.ID})
		if err != nil {
			return fmt.Errorf("product repository lock products: %w", err)
		}
		if len(locked) == 0 {
			return apperr.ProductNotFoundErr
		}

		updated, err = s.ledger.record(ctx, db, locked[0], entry, time.Now())
		if err != nil {
			return fmt.Errorf("record movement: %w", err)
		}

		return nil
	}); err != nil {
		return model.Product{}, mapWriteErr(err)
	}

	s.logger.InfoContext(ctx, "stock updated",
		slog.String("product_id", updated.ID.String()),
		slog.String("type", string(entry.Type)),
		slog.Int("qty", entry.Qty),
		slog.Int("in_stock", updated.InStock),
	)

	return updated, nil
}

func (s *stockService) UpdateManyStock(ctx context.Context, params UpdateManyStockParams) error {
	if len(params.Items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(params.Items))
	seen := make(map[uuid.UUID]struct{}, len(params.Items))
	for _, item := range params.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		// One locking read ordered by id keeps concurrent batches from
		// deadlocking on each other.
		locked, err := s.productRepo.
			WithDB(db).
			LockProducts(ctx, ids)
		if err != nil {
			return fmt.Errorf("product repository lock products: %w", err)
		}

		products := make(map[uuid.UUID]model.Product, len(locked))
		for _, p := range locked {
			products[p.ID] = p
		}

		now := time.Now()
		for _, item := range params.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return fmt.Errorf("product %s: %w", item.ProductID, apperr.ProductNotFoundErr)
			}

			entry := normalizeEntry(item.Qty, params.Type, params.Description)
			product, err = s.ledger.record(ctx, db, product, entry, now)
			if err != nil {
				return fmt.Errorf("record movement for product %s: %w", item.ProductID, err)
			}
			products[item.ProductID] = product
		}

		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "error updating stock in batch",
			slog.Int("count", len(params.Items)),
			slog.Any("error", err),
		)
		return apperr.StockUpdateFailedErr.WrapParent(err)
	}

	s.logger.InfoContext(ctx, "stock updated in batch", slog.Int("count", len(params.Items)))

	return nil
}

func (s *stockService) ListMovementHistoric(ctx context.Context, product model.Product, params ListMovementsParams) ([]model.StockMovement, error) {
	movements, err := s.movementRepo.ListMovements(ctx, repository.ListMovementsParams{
		ListQuery: repository.ListQuery{
			Search:    searchInput(params.Search, params.Filters),
			Customize: params.Customize,
		},
		ProductID: product.ID,
		Limit:     params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("stock movement repository list movements: %w", err)
	}

	return movements, nil
}

func (s *stockService) PaginateMovementHistoric(ctx context.Context, product model.Product, params PaginateMovementsParams) (model.Page[model.StockMovement], error) {
	page, err := s.movementRepo.PaginateMovements(ctx, repository.PaginateMovementsParams{
		ListQuery: repository.ListQuery{
			Search:    searchInput(params.Search, params.Filters),
			Customize: params.Customize,
		},
		ProductID: product.ID,
		Page:      params.Page,
		PerPage:   params.Limit,
	})
	if err != nil {
		return model.Page[model.StockMovement]{}, fmt.Errorf("stock movement repository paginate movements: %w", err)
	}

	return page, nil
}
