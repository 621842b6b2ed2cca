package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/tuanvumaihuynh/product-inventory/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/response"
)

// Recoverer turns a handler panic into the generic 500 envelope and logs the
// panic value with its stack.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					// aborts the response on purpose, not logged
					panic(rvr)
				}

				log.ErrorContext(r.Context(), "panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("recover", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if r.Header.Get("Connection") != "Upgrade" {
					//nolint:errcheck
					response.Write(w, apierr.InternalServerErr.Response())
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
