package event

import (
	"context"
	"log/slog"
)

func (s *Service) handleProductEvent(ctx context.Context, topic string, ev ProductEvent) error {
	s.logger.InfoContext(ctx, "handling product event",
		slog.String("topic", topic),
		slog.String("product_id", ev.ProductID),
		slog.String("title", ev.Title),
		slog.Int("in_stock", ev.InStock),
	)
	return nil
}

func (s *Service) handleStockUpdatedEvent(ctx context.Context, topic string, ev StockUpdatedEvent) error {
	attrs := []any{
		slog.String("topic", topic),
		slog.String("product_id", ev.ProductID),
		slog.String("movement_id", ev.MovementID),
		slog.String("type", string(ev.Type)),
		slog.Int("qty", ev.Qty),
		slog.Int("in_stock", ev.InStock),
	}

	if ev.InStock <= 0 {
		s.logger.WarnContext(ctx, "product is out of stock", attrs...)
		return nil
	}

	s.logger.InfoContext(ctx, "handling stock updated event", attrs...)
	return nil
}
