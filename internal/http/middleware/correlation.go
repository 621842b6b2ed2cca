package middleware

import (
	"net/http"

	"github.com/tuanvumaihuynh/product-inventory/pkg/correlationid"
)

// CorrelationID reuses the caller's correlation id or generates one, stores it
// in the request context and echoes it in the response headers.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlationid.Header)
			if id == "" {
				id = correlationid.New()
			}

			w.Header().Set(correlationid.Header, id)
			ctx := correlationid.NewContext(r.Context(), id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
