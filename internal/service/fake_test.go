package service_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
)

// store is the in-memory state shared by the fake repositories.
type store struct {
	products  map[uuid.UUID]model.Product
	movements []model.StockMovement
	outbox    []repository.CreateOutboxMsgParams
}

func newStore() *store {
	return &store{products: map[uuid.UUID]model.Product{}}
}

func (s *store) clone() store {
	return store{
		products:  maps.Clone(s.products),
		movements: slices.Clone(s.movements),
		outbox:    slices.Clone(s.outbox),
	}
}

func (s *store) topics() []string {
	topics := make([]string, 0, len(s.outbox))
	for _, msg := range s.outbox {
		topics = append(topics, msg.Topic)
	}
	return topics
}

func (s *store) ledgerSum(productID uuid.UUID) int {
	sum := 0
	for _, m := range s.movements {
		if m.ProductID == productID {
			sum += m.SignedQty()
		}
	}
	return sum
}

// fakeDB runs transactions against the store and restores the snapshot taken
// at begin when the function fails.
type fakeDB struct {
	db.DB
	store *store
	txs   int
}

func (d *fakeDB) WithTx(_ context.Context, fn func(db.DB) error) error {
	d.txs++
	snapshot := d.store.clone()
	if err := fn(d); err != nil {
		*d.store = snapshot
		return err
	}
	return nil
}

type fakeProductRepo struct {
	store *store

	createErr    error
	updateErr    error
	deleteErr    error
	setStockErrs map[uuid.UUID]error

	locked   [][]uuid.UUID
	lastList repository.ListProductsParams
	lastPage repository.PaginateProductsParams
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func (r *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) CreateProduct(_ context.Context, product model.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.store.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) FindProduct(_ context.Context, params repository.FindProductParams) (model.Product, error) {
	for _, p := range r.sorted() {
		if p.IsDeleted() && !params.WithTrashed {
			continue
		}
		if params.ID != nil && p.ID != *params.ID {
			continue
		}
		if params.Sku != nil && (p.Sku == nil || *p.Sku != *params.Sku) {
			continue
		}
		return p, nil
	}
	return model.Product{}, fmt.Errorf("find product: %w", pgx.ErrNoRows)
}

func (r *fakeProductRepo) ListProducts(_ context.Context, params repository.ListProductsParams) ([]model.Product, error) {
	r.lastList = params

	products := r.live()
	if params.Limit > 0 && len(products) > params.Limit {
		products = products[:params.Limit]
	}
	return products, nil
}

func (r *fakeProductRepo) PaginateProducts(_ context.Context, params repository.PaginateProductsParams) (model.Page[model.Product], error) {
	r.lastPage = params

	products := r.live()
	return model.Page[model.Product]{
		Items:       products,
		CurrentPage: max(params.Page, 1),
		PerPage:     params.PerPage,
		Total:       int64(len(products)),
	}, nil
}

func (r *fakeProductRepo) LockProducts(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.locked = append(r.locked, ids)

	var out []model.Product
	for _, p := range r.live() {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, product model.Product) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	current, ok := r.store.products[product.ID]
	if !ok || current.IsDeleted() {
		return pgx.ErrNoRows
	}
	product.InStock = current.InStock
	r.store.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) SetProductStock(_ context.Context, id uuid.UUID, inStock int, updatedAt time.Time) error {
	if err := r.setStockErrs[id]; err != nil {
		return err
	}
	p, ok := r.store.products[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.InStock = inStock
	p.UpdatedAt = updatedAt
	r.store.products[id] = p
	return nil
}

func (r *fakeProductRepo) SoftDeleteProduct(_ context.Context, id uuid.UUID, deletedAt time.Time) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	p, ok := r.store.products[id]
	if !ok || p.IsDeleted() {
		return pgx.ErrNoRows
	}
	p.DeletedAt = &deletedAt
	r.store.products[id] = p
	return nil
}

func (r *fakeProductRepo) sorted() []model.Product {
	products := slices.Collect(maps.Values(r.store.products))
	slices.SortFunc(products, func(a, b model.Product) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return products
}

func (r *fakeProductRepo) live() []model.Product {
	var out []model.Product
	for _, p := range r.sorted() {
		if !p.IsDeleted() {
			out = append(out, p)
		}
	}
	return out
}

type fakeMovementRepo struct {
	store *store

	createErr error
	lastList  repository.ListMovementsParams
	lastPage  repository.PaginateMovementsParams
}

var _ repository.StockMovementRepository = (*fakeMovementRepo)(nil)

func (r *fakeMovementRepo) WithDB(db.DB) repository.StockMovementRepository { return r }

func (r *fakeMovementRepo) CreateMovement(_ context.Context, movement model.StockMovement) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.store.movements = append(r.store.movements, movement)
	return nil
}

func (r *fakeMovementRepo) ListMovements(_ context.Context, params repository.ListMovementsParams) ([]model.StockMovement, error) {
	r.lastList = params

	movements := r.newestFirst(params.ProductID)
	if params.Limit > 0 && len(movements) > params.Limit {
		movements = movements[:params.Limit]
	}
	return movements, nil
}

func (r *fakeMovementRepo) PaginateMovements(_ context.Context, params repository.PaginateMovementsParams) (model.Page[model.StockMovement], error) {
	r.lastPage = params

	movements := r.newestFirst(params.ProductID)
	return model.Page[model.StockMovement]{
		Items:       movements,
		CurrentPage: max(params.Page, 1),
		PerPage:     params.PerPage,
		Total:       int64(len(movements)),
	}, nil
}

func (r *fakeMovementRepo) SumSignedQty(_ context.Context, productID uuid.UUID) (int, error) {
	return r.store.ledgerSum(productID), nil
}

func (r *fakeMovementRepo) newestFirst(productID uuid.UUID) []model.StockMovement {
	var out []model.StockMovement
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		if r.store.movements[i].ProductID == productID {
			out = append(out, r.store.movements[i])
		}
	}
	return out
}

type fakeOutboxRepo struct {
	store *store
}

var _ repository.OutboxMsgRepository = (*fakeOutboxRepo)(nil)

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.store.outbox = append(r.store.outbox, params)
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}
