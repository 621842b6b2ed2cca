package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/search"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
)

var stockMovementColumns = []string{
	"stock_movements.id",
	"stock_movements.product_id",
	"stock_movements.type",
	"stock_movements.qty",
	"stock_movements.description",
	"stock_movements.created_at",
}

type ListMovementsParams struct {
	ListQuery
	ProductID uuid.UUID
	Limit     int
}

type PaginateMovementsParams struct {
	ListQuery
	ProductID uuid.UUID
	Page      int
	PerPage   int
}

type StockMovementRepository interface {
	WithDB(db db.DB) StockMovementRepository
	CreateMovement(ctx context.Context, movement model.StockMovement) error
	// ListMovements returns the movements of a product, newest first unless
	// the customizer orders otherwise.
	ListMovements(ctx context.Context, params ListMovementsParams) ([]model.StockMovement, error)
	PaginateMovements(ctx context.Context, params PaginateMovementsParams) (model.Page[model.StockMovement], error)
	// SumSignedQty folds the ledger of a product into its stock level.
	SumSignedQty(ctx context.Context, productID uuid.UUID) (int, error)
}

type stockMovementRepository struct {
	db db.DB
}

func NewStockMovementRepository(db db.DB) StockMovementRepository {
	return &stockMovementRepository{
		db: db,
	}
}

func (r stockMovementRepository) WithDB(db db.DB) StockMovementRepository {
	return &stockMovementRepository{
		db: db,
	}
}

func (r stockMovementRepository) CreateMovement(ctx context.Context, movement model.StockMovement) error {
	insert := psql.Insert("stock_movements").
		Columns("id", "product_id", "type", "qty", "description", "created_at").
		Values(
			movement.ID,
			movement.ProductID,
			string(movement.Type),
			int32(movement.Qty), //nolint:gosec
			movement.Description,
			movement.CreatedAt,
		)

	if _, err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}

	return nil
}

func (r stockMovementRepository) ListMovements(ctx context.Context, params ListMovementsParams) ([]model.StockMovement, error) {
	sb := params.apply(r.baseQuery(params.ProductID, params.Customize == nil), stockMovementSearch{})

	rows, err := collect[stockMovementRow](ctx, r.db, limit(sb, params.Limit))
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}

	movements := make([]model.StockMovement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, row.toModel())
	}

	return movements, nil
}

func (r stockMovementRepository) PaginateMovements(ctx context.Context, params PaginateMovementsParams) (model.Page[model.StockMovement], error) {
	sb := params.apply(r.baseQuery(params.ProductID, params.Customize == nil), stockMovementSearch{})

	page, err := paginate[stockMovementRow](ctx, r.db, sb, params.Page, params.PerPage)
	if err != nil {
		return model.Page[model.StockMovement]{}, fmt.Errorf("paginate stock movements: %w", err)
	}

	return mapPage(page, func(row stockMovementRow) (model.StockMovement, error) {
		return row.toModel(), nil
	})
}

func (r stockMovementRepository) SumSignedQty(ctx context.Context, productID uuid.UUID) (int, error) {
	query, args, err := psql.
		Select("COALESCE(SUM(CASE WHEN type = 'decrease' THEN -qty ELSE qty END), 0)").
		From("stock_movements").
		Where(sq.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum stock movements: %w", err)
	}

	return int(sum), nil
}

func (r stockMovementRepository) baseQuery(productID uuid.UUID, ordered bool) sq.SelectBuilder {
	sb := psql.Select(stockMovementColumns...).
		From("stock_movements").
		Where(sq.Eq{"stock_movements.product_id": productID})
	if ordered {
		sb = sb.OrderBy("stock_movements.created_at DESC", "stock_movements.id DESC")
	}
	return sb
}

type stockMovementRow struct {
	ID          uuid.UUID `db:"id"`
	ProductID   uuid.UUID `db:"product_id"`
	Type        string    `db:"type"`
	Qty         int       `db:"qty"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row stockMovementRow) toModel() model.StockMovement {
	return model.StockMovement{
		ID:          row.ID,
		ProductID:   row.ProductID,
		Type:        model.StockMovementType(row.Type),
		Qty:         row.Qty,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
}

// stockMovementSearch has no simple term columns, movements are narrowed by
// named filters only.
type stockMovementSearch struct{}

var (
	_ search.Mutating           = stockMovementSearch{}
	_ search.AdvancedSearchable = stockMovementSearch{}
)

func (stockMovementSearch) SearchColumns() []string {
	return nil
}

func (stockMovementSearch) SearchMutators() map[string]search.Mutator {
	return map[string]search.Mutator{
		"stock_movements.created_at": search.DateMutator(),
	}
}

func (stockMovementSearch) SearchSettings() search.Settings {
	return search.Settings{
		Filters: []search.Filter{
			search.Column("type", "stock_movements.type", "="),
			search.Column("description", "stock_movements.description", "ILIKE"),
			search.Column("createdFrom", "stock_movements.created_at", ">="),
		},
	}
}
