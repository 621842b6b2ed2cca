package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/event"
	"github.com/tuanvumaihuynh/product-inventory/internal/log"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
	"github.com/tuanvumaihuynh/product-inventory/pkg/ptr"
)

type fixture struct {
	store        *store
	db           *fakeDB
	productRepo  *fakeProductRepo
	movementRepo *fakeMovementRepo
	outboxRepo   *fakeOutboxRepo
	products     service.ProductService
	stock        service.StockService
}

func newFixture() *fixture {
	st := newStore()
	f := &fixture{
		store:        st,
		db:           &fakeDB{store: st},
		productRepo:  &fakeProductRepo{store: st},
		movementRepo: &fakeMovementRepo{store: st},
		outboxRepo:   &fakeOutboxRepo{store: st},
	}

	f.products = service.NewProductService(log.Discard(), f.db, f.productRepo, f.movementRepo, f.outboxRepo)
	f.stock = service.NewStockService(log.Discard(), f.db, f.productRepo, f.movementRepo, f.outboxRepo)

	return f
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should seed the stock with an initial movement", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{
			Title: "Widget",
			Price: decimal.NewNullDecimal(decimal.RequireFromString("9.99")),
			Qty:   ptr.New(5),
		})
		require.NoError(t, err)

		assert.Equal(t, 5, product.InStock)
		assert.Equal(t, 5, f.stock.GetAvailable(ctx, product))
		assert.Equal(t, 5, f.store.products[product.ID].InStock)

		require.Len(t, f.store.movements, 1)
		m := f.store.movements[0]
		assert.Equal(t, product.ID, m.ProductID)
		assert.Equal(t, "increase", string(m.Type))
		assert.Equal(t, 5, m.Qty)
		assert.Equal(t, service.InitialMovementDescription, m.Description)

		assert.Equal(t, []string{event.TopicStockUpdated, event.TopicProductCreated}, f.store.topics())

		sum, err := f.stock.GetLedgerAvailable(ctx, product)
		require.NoError(t, err)
		assert.Equal(t, product.InStock, sum)
	})

	t.Run("Should default the initial quantity to one", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "Widget"})
		require.NoError(t, err)
		assert.Equal(t, 1, product.InStock)
	})

	t.Run("Should record the absolute quantity", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "Widget", Qty: ptr.New(-4)})
		require.NoError(t, err)
		assert.Equal(t, 4, product.InStock)
		assert.Equal(t, 4, f.store.movements[0].Qty)
	})

	t.Run("Should refuse an explicit zero quantity", func(t *testing.T) {
		f := newFixture()

		_, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "Widget", Qty: ptr.New(0)})
		assert.ErrorIs(t, err, apperr.InvalidStockQtyErr)
		assert.Empty(t, f.store.products)
		assert.Empty(t, f.store.movements)
		assert.Empty(t, f.store.outbox)
	})

	t.Run("Should publish the created product", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "Widget", Sku: ptr.New("W-1"), Qty: ptr.New(2)})
		require.NoError(t, err)

		msg := f.store.outbox[1]
		require.NotNil(t, msg.PartitionKey)
		assert.Equal(t, product.ID.String(), *msg.PartitionKey)

		var ev event.ProductEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		assert.Equal(t, "Widget", ev.Title)
		assert.Equal(t, 2, ev.InStock)
	})

	t.Run("Should reject a sku owned by another product", func(t *testing.T) {
		f := newFixture()

		_, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A", Sku: ptr.New("DUP")})
		require.NoError(t, err)

		_, err = f.products.CreateProduct(ctx, service.CreateProductParams{Title: "B", Sku: ptr.New("DUP")})
		assert.ErrorIs(t, err, apperr.SkuTakenErr)
		assert.Len(t, f.store.products, 1)
	})

	t.Run("Should map a racing unique violation to a conflict", func(t *testing.T) {
		f := newFixture()
		f.productRepo.createErr = &pgconn.PgError{Code: "23505", ConstraintName: repository.ProductSkuConstraint}

		_, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A", Sku: ptr.New("DUP")})
		assert.ErrorIs(t, err, apperr.ConflictErr)
	})

	t.Run("Should roll back the product when the movement fails", func(t *testing.T) {
		f := newFixture()
		f.movementRepo.createErr = errors.New("insert failed")

		_, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A"})
		require.Error(t, err)
		assert.Empty(t, f.store.products)
		assert.Empty(t, f.store.outbox)
	})
}

func TestFindProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "Widget", Sku: ptr.New("W-1")})
	require.NoError(t, err)

	t.Run("Should find by id and sku", func(t *testing.T) {
		byID, err := f.products.FindProductByID(ctx, product.ID, true)
		require.NoError(t, err)
		assert.Equal(t, product.ID, byID.ID)

		bySku, err := f.products.FindProductBySku(ctx, "W-1", true)
		require.NoError(t, err)
		assert.Equal(t, product.ID, bySku.ID)
	})

	t.Run("Should signal not found when the product must exist", func(t *testing.T) {
		_, err := f.products.FindProductByID(ctx, uuid.New(), true)
		assert.ErrorIs(t, err, apperr.ProductNotFoundErr)
	})

	t.Run("Should return nothing when the product may be missing", func(t *testing.T) {
		found, err := f.products.FindProductBySku(ctx, "missing", false)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("Should keep advanced filters off without values", func(t *testing.T) {
		f := newFixture()

		_, err := f.products.ListProducts(ctx, service.ListProductsParams{
			Limit:   3,
			Search:  "cup",
			Filters: url.Values{"sf_Title": {""}, "page": {"2"}},
		})
		require.NoError(t, err)

		assert.Equal(t, 3, f.productRepo.lastList.Limit)
		assert.Equal(t, "cup", f.productRepo.lastList.Search.Term)
		assert.False(t, f.productRepo.lastList.Search.Advanced)
	})

	t.Run("Should turn advanced filters on with a value", func(t *testing.T) {
		f := newFixture()

		_, err := f.products.PaginateProducts(ctx, service.PaginateProductsParams{
			Page:    2,
			Limit:   10,
			Filters: url.Values{"sf_MinPrice": {"0"}},
		})
		require.NoError(t, err)

		assert.True(t, f.productRepo.lastPage.Search.Advanced)
		assert.Equal(t, 2, f.productRepo.lastPage.Page)
		assert.Equal(t, 10, f.productRepo.lastPage.PerPage)
	})

	t.Run("Should hide deleted products", func(t *testing.T) {
		f := newFixture()

		kept, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "Kept"})
		require.NoError(t, err)
		gone, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "Gone"})
		require.NoError(t, err)
		require.True(t, f.products.DeleteProduct(ctx, gone))

		products, err := f.products.ListProducts(ctx, service.ListProductsParams{})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, kept.ID, products[0].ID)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should change only the given fields", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{
			Title:       "Widget",
			Description: ptr.New("blue"),
			Qty:         ptr.New(7),
		})
		require.NoError(t, err)

		price := decimal.RequireFromString("12.00")
		updated, err := f.products.UpdateProduct(ctx, product, service.UpdateProductParams{
			Title: ptr.New("Gadget"),
			Price: &price,
		})
		require.NoError(t, err)

		assert.Equal(t, "Gadget", updated.Title)
		assert.Equal(t, "blue", *updated.Description)
		assert.True(t, updated.Price.Valid)
		assert.True(t, price.Equal(updated.Price.Decimal))
		assert.Equal(t, 7, updated.InStock)
		assert.Equal(t, event.TopicProductUpdated, f.store.topics()[len(f.store.outbox)-1])
	})

	t.Run("Should allow keeping its own sku", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A", Sku: ptr.New("A-1")})
		require.NoError(t, err)

		_, err = f.products.UpdateProduct(ctx, product, service.UpdateProductParams{Sku: ptr.New("A-1")})
		assert.NoError(t, err)
	})

	t.Run("Should clear the sku when given an empty one", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A", Sku: ptr.New("A-1")})
		require.NoError(t, err)

		updated, err := f.products.UpdateProduct(ctx, product, service.UpdateProductParams{Sku: ptr.New("")})
		require.NoError(t, err)
		assert.Nil(t, updated.Sku)
	})

	t.Run("Should reject another product's sku", func(t *testing.T) {
		f := newFixture()

		_, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A", Sku: ptr.New("A-1")})
		require.NoError(t, err)
		b, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "B", Sku: ptr.New("B-1")})
		require.NoError(t, err)

		_, err = f.products.UpdateProduct(ctx, b, service.UpdateProductParams{Sku: ptr.New("A-1")})
		assert.ErrorIs(t, err, apperr.SkuTakenErr)
	})

	t.Run("Should report failures", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A"})
		require.NoError(t, err)
		outboxBefore := len(f.store.outbox)

		f.productRepo.updateErr = errors.New("update failed")
		_, err = f.products.UpdateProduct(ctx, product, service.UpdateProductParams{Title: ptr.New("B")})
		require.Error(t, err)
		assert.Equal(t, "A", f.store.products[product.ID].Title)
		assert.Len(t, f.store.outbox, outboxBefore)
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should soft delete and keep the row", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A"})
		require.NoError(t, err)

		assert.True(t, f.products.DeleteProduct(ctx, product))

		found, err := f.products.FindProductByID(ctx, product.ID, false)
		require.NoError(t, err)
		assert.Nil(t, found)

		trashed, err := f.productRepo.FindProduct(ctx, repository.FindProductParams{ID: &product.ID, WithTrashed: true})
		require.NoError(t, err)
		assert.True(t, trashed.IsDeleted())
		assert.Equal(t, event.TopicProductDeleted, f.store.topics()[len(f.store.outbox)-1])
	})

	t.Run("Should swallow failures", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A"})
		require.NoError(t, err)

		f.productRepo.deleteErr = errors.New("delete failed")
		assert.False(t, f.products.DeleteProduct(ctx, product))
		assert.False(t, f.store.products[product.ID].IsDeleted())
	})

	t.Run("Should free the sku for new products", func(t *testing.T) {
		f := newFixture()

		product, err := f.products.CreateProduct(ctx, service.CreateProductParams{Title: "A", Sku: ptr.New("S-1")})
		require.NoError(t, err)
		require.True(t, f.products.DeleteProduct(ctx, product))

		_, err = f.products.CreateProduct(ctx, service.CreateProductParams{Title: "B", Sku: ptr.New("S-1")})
		assert.NoError(t, err)
	})
}
