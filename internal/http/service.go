package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/product-inventory/internal/apperr"
	"github.com/tuanvumaihuynh/product-inventory/internal/config"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/metric"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/middleware"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/response"
	"github.com/tuanvumaihuynh/product-inventory/internal/http/swagger"
	"github.com/tuanvumaihuynh/product-inventory/internal/service"
	"github.com/tuanvumaihuynh/product-inventory/internal/storage/db"
	"github.com/tuanvumaihuynh/product-inventory/pkg/validator"
)

const maxBodyBytes = 1 << 20 // 1 MB

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg      config.HTTP
	logger   *slog.Logger
	metrics  *metric.Metrics
	gatherer prometheus.Gatherer

	validator validator.Validator
	registry  *response.Registry

	health     db.HealthChecker
	productSvc service.ProductService
	stockSvc   service.StockService
}

type CleanupFunc func(ctx context.Context) error

// New builds the HTTP service. Metrics are registered with reg and served
// from it when it is also a gatherer.
func New(
	cfg config.HTTP,
	log *slog.Logger,
	reg prometheus.Registerer,
	health db.HealthChecker,
	productSvc service.ProductService,
	stockSvc service.StockService,
) (*Service, error) {
	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("new default validator: %w", err)
	}

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Service{
		cfg:        cfg,
		logger:     log.With(slog.String("service", "http")),
		metrics:    metric.New(reg),
		gatherer:   gatherer,
		validator:  v,
		registry:   response.DefaultRegistry(),
		health:     health,
		productSvc: productSvc,
		stockSvc:   stockSvc,
	}, nil
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	router, err := s.Router()
	if err != nil {
		return nil, err
	}
	return s.RunWithServer(ctx, router)
}

// Router returns the fully wired handler tree.
func (s *Service) Router() (chi.Router, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		if err := swagger.Register(r); err != nil {
			return nil, fmt.Errorf("register swagger: %w", err)
		}
	}

	s.RegisterHandlers(r)

	return r, nil
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", slog.Any("error", err))
		}
	}()

	s.logger.Info("http server started", slog.String("addr", ln.Addr().String()))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.CorsOrigins),
		middleware.Logging(s.logger),
		chimiddleware.RequestSize(maxBodyBytes),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	products := newProductHandler(s.productSvc, s.validator, s.registry)
	stock := newStockHandler(s.productSvc, s.stockSvc, s.validator, s.registry)

	r.Get("/products", s.handle(products.ListProducts))
	r.Post("/products", s.handle(products.CreateProduct))
	r.Post("/products/stock", s.handle(stock.UpdateManyStock))

	r.Get("/products/{id}", s.handle(products.GetProduct))
	r.Put("/products/{id}", s.handle(products.UpdateProduct))
	r.Patch("/products/{id}", s.handle(products.PatchProduct))
	r.Delete("/products/{id}", s.handle(products.DeleteProduct))

	r.Get("/products/{id}/stock", s.handle(stock.ListMovements))
	r.Post("/products/{id}/stock", s.handle(stock.UpdateStock))

	r.Get(middleware.HealthPath, s.handle(s.healthz))

	r.Method(http.MethodGet, middleware.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.handleResponseError(w, r, apperr.RouteNotFoundErr)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.handleResponseError(w, r, apperr.MethodNotAllowedErr)
	})
}

type handlerFunc func(r *http.Request) (response.Response, error)

// handle adapts a handler returning a response or an error to net/http.
func (s *Service) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r)
		if err != nil {
			s.handleResponseError(w, r, err)
			return
		}

		if err := response.Write(w, res); err != nil {
			s.logger.WarnContext(r.Context(), "error encoding response",
				slog.Any("error", err))
		}
	}
}

func (s *Service) healthz(r *http.Request) (response.Response, error) {
	healthy, err := s.health.IsHealthy(r.Context())
	if err != nil || !healthy {
		return response.Response{}, apperr.DatabaseUnavailableErr.WrapParent(err)
	}

	return response.OK(map[string]string{"status": "ok"}), nil
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err, s.cfg.Debug)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := response.Write(w, res.Response()); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}
