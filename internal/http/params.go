package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-inventory/internal/repository"
	"github.com/tuanvumaihuynh/product-inventory/internal/search"
)

const maxPerPage = 100

type listParams struct {
	Page    int
	Limit   int
	Search  string
	Filters url.Values
}

// bindListParams reads page, limit, search and the sf_ filters. Limit
// defaults to 10 and is capped at maxPerPage.
func bindListParams(r *http.Request) (listParams, error) {
	query := r.URL.Query()

	var (
		page  *int
		limit *int
		term  *string
	)
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &page); err != nil {
		return listParams{}, &apierr.InvalidParamError{Param: "page", Err: err}
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		return listParams{}, &apierr.InvalidParamError{Param: "limit", Err: err}
	}
	if err := runtime.BindQueryParameter("form", true, false, "search", query, &term); err != nil {
		return listParams{}, &apierr.InvalidParamError{Param: "search", Err: err}
	}

	params := listParams{
		Page:    1,
		Limit:   repository.DefaultPerPage,
		Filters: url.Values{},
	}
	if page != nil && *page > 1 {
		params.Page = *page
	}
	if limit != nil && *limit > 0 {
		params.Limit = min(*limit, maxPerPage)
	}
	if term != nil {
		params.Search = strings.TrimSpace(*term)
	}

	for name, values := range query {
		if strings.HasPrefix(name, search.DefaultPrefix) {
			params.Filters[name] = values
		}
	}

	return params, nil
}

// bindProductID reads the {id} path parameter. A malformed id cannot name a
// product, so it is reported as not found.
func bindProductID(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		}); err != nil {
		return uuid.Nil, apperr.ProductNotFoundErr.WrapParent(&apierr.InvalidParamError{Param: "id", Err: err})
	}

	return id, nil
}
