package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/product-inventory/internal/model"
	"github.com/tuanvumaihuynh/product-inventory/internal/search"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
)

// DefaultPerPage is used when a paginated listing asks for no page size.
const DefaultPerPage = 10

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CustomizeFunc adjusts a listing query, e.g. to add ordering or predicates.
type CustomizeFunc func(sb sq.SelectBuilder) sq.SelectBuilder

// ListQuery narrows a listing with a search and an optional customizer.
type ListQuery struct {
	Search    search.Input
	Customize CustomizeFunc
}

func (q ListQuery) apply(sb sq.SelectBuilder, entity search.Searchable) sq.SelectBuilder {
	if q.Customize != nil {
		sb = q.Customize(sb)
	}
	return search.Apply(sb, entity, q.Search)
}

func limit(sb sq.SelectBuilder, n int) sq.SelectBuilder {
	if n > 0 {
		return sb.Limit(uint64(n))
	}
	return sb
}

func collect[T any](ctx context.Context, db db.DB, sb sq.SelectBuilder) ([]T, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}

	return items, nil
}

func collectOne[T any](ctx context.Context, db db.DB, sb sq.SelectBuilder) (T, error) {
	var zero T

	query, args, err := sb.ToSql()
	if err != nil {
		return zero, fmt.Errorf("build query: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("query: %w", err)
	}

	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return zero, fmt.Errorf("collect row: %w", err)
	}

	return item, nil
}

// paginate counts the rows matched by sb, then loads the requested page.
func paginate[T any](ctx context.Context, db db.DB, sb sq.SelectBuilder, page, perPage int) (model.Page[T], error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	query, args, err := countQuery(sb).ToSql()
	if err != nil {
		return model.Page[T]{}, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return model.Page[T]{}, fmt.Errorf("count: %w", err)
	}

	// Pages past the last one are empty. Checking in page units keeps the
	// offset from overflowing for huge page numbers.
	items := []T{}
	if int64(page-1) < (total+int64(perPage)-1)/int64(perPage) {
		offset := uint64(page-1) * uint64(perPage)
		items, err = collect[T](ctx, db, sb.Limit(uint64(perPage)).Offset(offset))
		if err != nil {
			return model.Page[T]{}, err
		}
	}

	return model.Page[T]{
		Items:       items,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
	}, nil
}

// countQuery counts every row matched by sb regardless of its limit and
// offset.
func countQuery(sb sq.SelectBuilder) sq.SelectBuilder {
	return psql.Select("COUNT(*)").FromSelect(sb.RemoveLimit().RemoveOffset(), "filtered")
}

func exec(ctx context.Context, db db.DB, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}

	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func mapPage[T, U any](p model.Page[T], fn func(T) (U, error)) (model.Page[U], error) {
	items := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		u, err := fn(item)
		if err != nil {
			return model.Page[U]{}, err
		}
		items = append(items, u)
	}

	return model.Page[U]{
		Items:       items,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
	}, nil
}
