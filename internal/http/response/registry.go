package response

import (
	"fmt"

	"github.com/tuanvumaihuynh/product-inventory/internal/model"
)

// Kind names a resource shape.
type Kind string

const (
	KindProduct       Kind = "product"
	KindStockMovement Kind = "stock_movement"
)

type formatter func(v any) (any, bool)

// Registry maps a resource kind to the function rendering it. It is filled
// once at startup and read-only afterwards.
type Registry struct {
	formatters map[Kind]formatter
}

func NewRegistry() *Registry {
	return &Registry{formatters: make(map[Kind]formatter)}
}

// Register binds kind to fn. Rendering a value that is not a T under kind
// fails.
func Register[T any, R any](r *Registry, kind Kind, fn func(T) R) {
	r.formatters[kind] = func(v any) (any, bool) {
		t, ok := v.(T)
		if !ok {
			return nil, false
		}
		return fn(t), true
	}
}

// Item renders a single value.
func (r *Registry) Item(kind Kind, v any) (any, error) {
	format, ok := r.formatters[kind]
	if !ok {
		return nil, fmt.Errorf("no formatter registered for %q", kind)
	}

	out, ok := format(v)
	if !ok {
		return nil, fmt.Errorf("formatter %q cannot render %T", kind, v)
	}

	return out, nil
}

// Collection renders every item, keeping the order.
func Collection[T any](r *Registry, kind Kind, items []T) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := r.Item(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type PageData struct {
	Items       []any `json:"items"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	LastPage    int   `json:"last_page"`
	Total       int64 `json:"total"`
}

// Page renders a page of items with its pagination metadata.
func Page[T any](r *Registry, kind Kind, page model.Page[T]) (PageData, error) {
	items, err := Collection(r, kind, page.Items)
	if err != nil {
		return PageData{}, err
	}

	return PageData{
		Items:       items,
		CurrentPage: page.CurrentPage,
		PerPage:     page.PerPage,
		LastPage:    page.LastPage(),
		Total:       page.Total,
	}, nil
}
