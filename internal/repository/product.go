package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/search"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
)

// ProductSkuConstraint is the partial unique index on products.sku.
const ProductSkuConstraint = "products_sku_key"

var productColumns = []string{
	"products.id",
	"products.sku",
	"products.title",
	"products.description",
	"products.price::text AS price",
	"products.promotional_price::text AS promotional_price",
	"products.in_stock",
	"products.created_at",
	"products.updated_at",
	"products.deleted_at",
}

type FindProductParams struct {
	ID          *uuid.UUID
	Sku         *string
	WithTrashed bool
}

type ListProductsParams struct {
	ListQuery
	Limit       int
	WithTrashed bool
}

type PaginateProductsParams struct {
	ListQuery
	Page        int
	PerPage     int
	WithTrashed bool
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	CreateProduct(ctx context.Context, product model.Product) error
	FindProduct(ctx context.Context, params FindProductParams) (model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	PaginateProducts(ctx context.Context, params PaginateProductsParams) (model.Page[model.Product], error)
	// LockProducts loads the live products with the given ids and holds a
	// row lock on each until the surrounding transaction ends. Rows are
	// locked in id order.
	LockProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	UpdateProduct(ctx context.Context, product model.Product) error
	SetProductStock(ctx context.Context, id uuid.UUID, inStock int, updatedAt time.Time) error
	SoftDeleteProduct(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	if err := checkStockRange(product.InStock); err != nil {
		return err
	}

	insert := psql.Insert("products").
		Columns("id", "sku", "title", "description", "price", "promotional_price", "in_stock", "created_at", "updated_at").
		Values(
			product.ID,
			product.Sku,
			product.Title,
			product.Description,
			product.Price,
			product.PromotionalPrice,
			int32(product.InStock), //nolint:gosec
			product.CreatedAt,
			product.UpdatedAt,
		)

	if _, err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r productRepository) FindProduct(ctx context.Context, params FindProductParams) (model.Product, error) {
	sb := r.baseQuery(params.WithTrashed)
	if params.ID != nil {
		sb = sb.Where(sq.Eq{"products.id": *params.ID})
	}
	if params.Sku != nil {
		sb = sb.Where(sq.Eq{"products.sku": *params.Sku})
	}

	row, err := collectOne[productRow](ctx, r.db, sb.Limit(1))
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}

	return row.toModel()
}

func (r productRepository) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	sb := params.apply(r.baseQuery(params.WithTrashed), productSearch{})

	rows, err := collect[productRow](ctx, r.db, limit(sb, params.Limit))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		product, err := row.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}

func (r productRepository) PaginateProducts(ctx context.Context, params PaginateProductsParams) (model.Page[model.Product], error) {
	sb := params.apply(r.baseQuery(params.WithTrashed), productSearch{})

	page, err := paginate[productRow](ctx, r.db, sb, params.Page, params.PerPage)
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("paginate products: %w", err)
	}

	return mapPage(page, productRow.toModel)
}

func (r productRepository) LockProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	rows, err := collect[productRow](ctx, r.db, r.lockQuery(ids))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		product, err := row.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}

// UpdateProduct writes the user editable columns only. in_stock is owned by
// the stock ledger, see SetProductStock.
func (r productRepository) UpdateProduct(ctx context.Context, product model.Product) error {
	update := psql.Update("products").
		SetMap(map[string]any{
			"sku":               product.Sku,
			"title":             product.Title,
			"description":       product.Description,
			"price":             product.Price,
			"promotional_price": product.PromotionalPrice,
			"updated_at":        product.UpdatedAt,
		}).
		Where(sq.Eq{"id": product.ID}).
		Where("deleted_at IS NULL")

	affected, err := exec(ctx, r.db, update)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update product: %w", pgx.ErrNoRows)
	}

	return nil
}

func (r productRepository) SetProductStock(ctx context.Context, id uuid.UUID, inStock int, updatedAt time.Time) error {
	if err := checkStockRange(inStock); err != nil {
		return err
	}

	update := psql.Update("products").
		Set("in_stock", int32(inStock)). //nolint:gosec
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id})

	affected, err := exec(ctx, r.db, update)
	if err != nil {
		return fmt.Errorf("set product stock: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set product stock: %w", pgx.ErrNoRows)
	}

	return nil
}

func (r productRepository) SoftDeleteProduct(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	update := psql.Update("products").
		Set("deleted_at", deletedAt).
		Set("updated_at", deletedAt).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL")

	affected, err := exec(ctx, r.db, update)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("soft delete product: %w", pgx.ErrNoRows)
	}

	return nil
}

func (r productRepository) lockQuery(ids []uuid.UUID) sq.SelectBuilder {
	return r.baseQuery(false).
		Where(sq.Eq{"products.id": ids}).
		OrderBy("products.id").
		Suffix("FOR UPDATE")
}

func (r productRepository) baseQuery(withTrashed bool) sq.SelectBuilder {
	sb := psql.Select(productColumns...).From("products")
	if !withTrashed {
		sb = sb.Where("products.deleted_at IS NULL")
	}
	return sb
}

func checkStockRange(inStock int) error {
	if inStock > math.MaxInt32 || inStock < math.MinInt32 {
		return fmt.Errorf("stock quantity out of range: %d", inStock)
	}
	return nil
}

type productRow struct {
	ID               uuid.UUID  `db:"id"`
	Sku              *string    `db:"sku"`
	Title            string     `db:"title"`
	Description      *string    `db:"description"`
	Price            *string    `db:"price"`
	PromotionalPrice *string    `db:"promotional_price"`
	InStock          int        `db:"in_stock"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

func (row productRow) toModel() (model.Product, error) {
	price, err := parseNullDecimal(row.Price)
	if err != nil {
		return model.Product{}, fmt.Errorf("parse price: %w", err)
	}

	promotionalPrice, err := parseNullDecimal(row.PromotionalPrice)
	if err != nil {
		return model.Product{}, fmt.Errorf("parse promotional price: %w", err)
	}

	return model.Product{
		ID:               row.ID,
		Sku:              row.Sku,
		Title:            row.Title,
		Description:      row.Description,
		Price:            price,
		PromotionalPrice: promotionalPrice,
		InStock:          row.InStock,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		DeletedAt:        row.DeletedAt,
	}, nil
}

func parseNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	return decimal.NewNullDecimal(d), nil
}

// productSearch configures how products are searched.
type productSearch struct{}

var (
	_ search.Searchable         = productSearch{}
	_ search.Mutating           = productSearch{}
	_ search.AdvancedSearchable = productSearch{}
)

func (productSearch) SearchColumns() []string {
	return []string{"products.sku", "products.title", "products.description"}
}

func (productSearch) SearchMutators() map[string]search.Mutator {
	return map[string]search.Mutator{
		"products.price":      search.DecimalMutator(),
		"products.in_stock":   search.IntMutator(),
		"products.created_at": search.DateMutator(),
	}
}

func (productSearch) SearchSettings() search.Settings {
	return search.Settings{
		Filters: []search.Filter{
			search.Column("title", "products.title", "ILIKE"),
			search.Column("sku", "products.sku", "="),
			search.Column("minPrice", "products.price", ">="),
			search.Column("maxPrice", "products.price", "<="),
			search.Column("inStock", "products.in_stock", "="),
			search.Column("createdFrom", "products.created_at", ">="),
			search.Relationship("movement", search.Relation{
				Table: "stock_movements sm",
				On:    "sm.product_id = products.id",
				Build: func(sb sq.SelectBuilder, value any, q *search.Query) sq.SelectBuilder {
					return sb.Where(sq.Expr("sm.description ILIKE ?", q.FormatTerm(value, "sm.description", true)))
				},
			}),
		},
	}
}
