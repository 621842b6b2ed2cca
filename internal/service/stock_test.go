package service_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/event"
	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
	"github.com/tuanvumaihuynh/product-inventory/pkg/ptr"
)

func createProduct(t *testing.T, f *fixture, title string, qty int) model.Product {
	t.Helper()

	product, err := f.products.CreateProduct(context.Background(), service.CreateProductParams{
		Title: title,
		Qty:   ptr.New(qty),
	})
	require.NoError(t, err)
	return product
}

func assertLedgerMatches(t *testing.T, f *fixture, ids ...uuid.UUID) {
	t.Helper()

	for _, id := range ids {
		assert.Equal(t, f.store.ledgerSum(id), f.store.products[id].InStock, "product %s", id)
	}
}

func TestUpdateStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Should apply increases and decreases to the counter", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 5)

		updated, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{
			Qty:         ptr.New(3),
			Type:        model.StockMovementDecrease,
			Description: "sale",
		})
		require.NoError(t, err)

		assert.Equal(t, 2, updated.InStock)
		assert.Equal(t, 2, f.stock.GetAvailable(ctx, updated))

		sum, err := f.stock.GetLedgerAvailable(ctx, updated)
		require.NoError(t, err)
		assert.Equal(t, 2, sum)

		last := f.store.movements[len(f.store.movements)-1]
		assert.Equal(t, model.StockMovementDecrease, last.Type)
		assert.Equal(t, 3, last.Qty)
		assert.Equal(t, "sale", last.Description)
	})

	t.Run("Should normalize missing input", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 1)

		updated, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{})
		require.NoError(t, err)

		assert.Equal(t, 2, updated.InStock)
		last := f.store.movements[len(f.store.movements)-1]
		assert.Equal(t, model.StockMovementIncrease, last.Type)
		assert.Equal(t, 1, last.Qty)
		assert.Equal(t, service.DefaultStockDescription, last.Description)
	})

	t.Run("Should read the counter from the locked row", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 5)

		// A stale copy must not overwrite a counter changed in between.
		_, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{Qty: ptr.New(5)})
		require.NoError(t, err)

		updated, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{Qty: ptr.New(1)})
		require.NoError(t, err)
		assert.Equal(t, 11, updated.InStock)
		assertLedgerMatches(t, f, product.ID)
	})

	t.Run("Should allow the stock to go negative", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 1)

		updated, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{
			Qty:  ptr.New(4),
			Type: model.StockMovementDecrease,
		})
		require.NoError(t, err)
		assert.Equal(t, -3, updated.InStock)
	})

	t.Run("Should reject unknown movement types", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 1)

		_, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{Type: "steal"})
		assert.ErrorIs(t, err, apperr.InvalidStockMovementErr)
		assert.Len(t, f.store.movements, 1)
	})

	t.Run("Should reject a zero quantity", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 1)

		_, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{Qty: ptr.New(0)})
		assert.ErrorIs(t, err, apperr.InvalidStockQtyErr)
	})

	t.Run("Should signal a deleted product", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 1)
		require.True(t, f.products.DeleteProduct(ctx, product))

		_, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{})
		assert.ErrorIs(t, err, apperr.ProductNotFoundErr)
	})

	t.Run("Should roll back the movement when the counter write fails", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 5)
		f.productRepo.setStockErrs = map[uuid.UUID]error{product.ID: errors.New("write failed")}

		_, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{Qty: ptr.New(2)})
		require.Error(t, err)

		assert.Len(t, f.store.movements, 1)
		assert.Equal(t, 5, f.store.products[product.ID].InStock)
	})

	t.Run("Should publish the new stock level", func(t *testing.T) {
		f := newFixture()
		product := createProduct(t, f, "Widget", 5)

		_, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{Qty: ptr.New(2)})
		require.NoError(t, err)

		assert.Equal(t, event.TopicStockUpdated, f.store.topics()[len(f.store.outbox)-1])
	})
}

func TestUpdateManyStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Should update every product", func(t *testing.T) {
		f := newFixture()
		a := createProduct(t, f, "A", 1)
		b := createProduct(t, f, "B", 2)

		err := f.stock.UpdateManyStock(ctx, service.UpdateManyStockParams{
			Items: []service.UpdateManyStockItem{
				{ProductID: a.ID, Qty: ptr.New(10)},
				{ProductID: b.ID, Qty: ptr.New(10)},
			},
			Type:        model.StockMovementIncrease,
			Description: "restock",
		})
		require.NoError(t, err)

		assert.Equal(t, 11, f.store.products[a.ID].InStock)
		assert.Equal(t, 12, f.store.products[b.ID].InStock)
		assertLedgerMatches(t, f, a.ID, b.ID)
	})

	t.Run("Should change nothing when an id is unknown", func(t *testing.T) {
		f := newFixture()
		a := createProduct(t, f, "A", 1)
		movements, outbox := len(f.store.movements), len(f.store.outbox)

		err := f.stock.UpdateManyStock(ctx, service.UpdateManyStockParams{
			Items: []service.UpdateManyStockItem{
				{ProductID: a.ID, Qty: ptr.New(10)},
				{ProductID: uuid.New(), Qty: ptr.New(10)},
			},
		})
		assert.ErrorIs(t, err, apperr.StockUpdateFailedErr)

		assert.Equal(t, 1, f.store.products[a.ID].InStock)
		assert.Len(t, f.store.movements, movements)
		assert.Len(t, f.store.outbox, outbox)
	})

	t.Run("Should change nothing when one entry fails", func(t *testing.T) {
		f := newFixture()
		a := createProduct(t, f, "A", 1)
		b := createProduct(t, f, "B", 1)
		f.productRepo.setStockErrs = map[uuid.UUID]error{b.ID: errors.New("write failed")}

		err := f.stock.UpdateManyStock(ctx, service.UpdateManyStockParams{
			Items: []service.UpdateManyStockItem{
				{ProductID: a.ID, Qty: ptr.New(3)},
				{ProductID: b.ID, Qty: ptr.New(3)},
			},
		})
		assert.ErrorIs(t, err, apperr.StockUpdateFailedErr)

		assert.Equal(t, 1, f.store.products[a.ID].InStock)
		assert.Equal(t, 1, f.store.products[b.ID].InStock)
		assertLedgerMatches(t, f, a.ID, b.ID)
	})

	t.Run("Should lock every product in one call", func(t *testing.T) {
		f := newFixture()
		a := createProduct(t, f, "A", 1)
		b := createProduct(t, f, "B", 1)
		f.productRepo.locked = nil

		err := f.stock.UpdateManyStock(ctx, service.UpdateManyStockParams{
			Items: []service.UpdateManyStockItem{
				{ProductID: b.ID, Qty: ptr.New(1)},
				{ProductID: a.ID, Qty: ptr.New(1)},
			},
		})
		require.NoError(t, err)

		require.Len(t, f.productRepo.locked, 1)
		assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, f.productRepo.locked[0])
	})

	t.Run("Should do nothing for an empty batch", func(t *testing.T) {
		f := newFixture()

		require.NoError(t, f.stock.UpdateManyStock(ctx, service.UpdateManyStockParams{}))
		assert.Zero(t, f.db.txs)
	})
}

func TestMovementHistoric(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	product := createProduct(t, f, "Widget", 5)
	other := createProduct(t, f, "Other", 1)

	_, err := f.stock.UpdateStock(ctx, product, service.UpdateStockParams{Qty: ptr.New(2), Type: model.StockMovementDecrease, Description: "sale"})
	require.NoError(t, err)

	t.Run("Should list the movements of one product newest first", func(t *testing.T) {
		movements, err := f.stock.ListMovementHistoric(ctx, product, service.ListMovementsParams{})
		require.NoError(t, err)

		require.Len(t, movements, 2)
		assert.Equal(t, "sale", movements[0].Description)
		assert.Equal(t, service.InitialMovementDescription, movements[1].Description)
		assert.Equal(t, product.ID, f.movementRepo.lastList.ProductID)
	})

	t.Run("Should agree with the counter", func(t *testing.T) {
		movements, err := f.stock.ListMovementHistoric(ctx, product, service.ListMovementsParams{})
		require.NoError(t, err)

		sum := 0
		for _, m := range movements {
			sum += m.SignedQty()
		}
		assert.Equal(t, f.store.products[product.ID].InStock, sum)
	})

	t.Run("Should paginate with filters", func(t *testing.T) {
		page, err := f.stock.PaginateMovementHistoric(ctx, other, service.PaginateMovementsParams{
			Page:    1,
			Limit:   10,
			Filters: url.Values{"sf_Type": {"increase"}},
		})
		require.NoError(t, err)

		assert.Len(t, page.Items, 1)
		assert.True(t, f.movementRepo.lastPage.Search.Advanced)
		assert.Equal(t, 10, f.movementRepo.lastPage.PerPage)
	})
}

func TestLedgerMatchesCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rng := rand.New(rand.NewPCG(1, 2))

	products := []model.Product{
		createProduct(t, f, "A", 3),
		createProduct(t, f, "B", 8),
		createProduct(t, f, "C", 1),
	}
	ids := []uuid.UUID{products[0].ID, products[1].ID, products[2].ID}

	for range 50 {
		typ := model.StockMovementIncrease
		if rng.IntN(2) == 0 {
			typ = model.StockMovementDecrease
		}

		if rng.IntN(3) == 0 {
			err := f.stock.UpdateManyStock(ctx, service.UpdateManyStockParams{
				Items: []service.UpdateManyStockItem{
					{ProductID: ids[0], Qty: ptr.New(rng.IntN(20) + 1)},
					{ProductID: ids[2], Qty: ptr.New(rng.IntN(20) + 1)},
				},
				Type: typ,
			})
			require.NoError(t, err)
		} else {
			p := products[rng.IntN(len(products))]
			_, err := f.stock.UpdateStock(ctx, p, service.UpdateStockParams{Qty: ptr.New(rng.IntN(20) + 1), Type: typ})
			require.NoError(t, err)
		}

		assertLedgerMatches(t, f, ids...)
	}
}
