package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/event"
	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
	"github.com/tuanvumaihuynh/product-inventory/pkg/outbox"
	"github.com/tuanvumaihuynh/product-inventory/pkg/ptr"
)

// DefaultStockDescription describes a movement recorded without a reason.
const DefaultStockDescription = "Inventory update"

// stockEntry is a normalized movement request.
type stockEntry struct {
	Qty         int
	Type        model.StockMovementType
	Description string
}

// ledger records movements and keeps products.in_stock in step with them.
type ledger struct {
	productRepo   repository.ProductRepository
	movementRepo  repository.StockMovementRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

// record appends one movement for product and applies it to the cached
// counter. It must run inside the transaction holding the product row lock.
func (l ledger) record(ctx context.Context, tx db.DB, product model.Product, entry stockEntry, now time.Time) (model.Product, error) {
	if err := entry.Type.Validate(); err != nil {
		return model.Product{}, apperr.InvalidStockMovementErr.WrapParent(err)
	}
	if entry.Qty <= 0 {
		return model.Product{}, apperr.InvalidStockQtyErr
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	movement := model.StockMovement{
		ID:          id,
		ProductID:   product.ID,
		Type:        entry.Type,
		Qty:         entry.Qty,
		Description: entry.Description,
		CreatedAt:   now,
	}

	if err := l.movementRepo.
		WithDB(tx).
		CreateMovement(ctx, movement); err != nil {
		return model.Product{}, fmt.Errorf("stock movement repository create movement: %w", err)
	}

	product.InStock += movement.SignedQty()
	product.UpdatedAt = now

	if err := l.productRepo.
		WithDB(tx).
		SetProductStock(ctx, product.ID, product.InStock, now); err != nil {
		return model.Product{}, fmt.Errorf("product repository set product stock: %w", err)
	}

	if err := writeEvent(ctx, l.outboxMsgRepo.WithDB(tx), event.TopicStockUpdated, product.ID,
		event.NewStockUpdatedEvent(movement, product.InStock)); err != nil {
		return model.Product{}, err
	}

	return product, nil
}

// normalizeQty defaults a missing quantity to 1 and drops the sign, the
// direction of a movement is carried by its type.
func normalizeQty(qty *int) int {
	n := ptr.Deref(qty, 1)
	if n < 0 {
		return -n
	}
	return n
}

func normalizeEntry(qty *int, typ model.StockMovementType, description string) stockEntry {
	if typ == "" {
		typ = model.StockMovementIncrease
	}
	if description == "" {
		description = DefaultStockDescription
	}
	return stockEntry{
		Qty:         normalizeQty(qty),
		Type:        typ,
		Description: description,
	}
}

func writeEvent(ctx context.Context, repo repository.OutboxMsgRepository, topic string, productID uuid.UUID, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := repo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        topic,
		Headers:      outbox.BuildHeaders(ctx),
		Payload:      payload,
		PartitionKey: event.PartitionKey(productID),
	}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}
