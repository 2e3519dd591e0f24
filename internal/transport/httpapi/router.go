// Package httpapi реализует REST API OMS поверх chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/metrics"
	"github.com/vladislavdragonenkov/restful-oms/internal/service/idempotency"
)

const defaultRequestTimeout = 30 * time.Second

// Services — сервисы, которые обслуживает API.
type Services struct {
	Users    UserService
	Orders   OrderService
	Products ProductService
}

type routerOptions struct {
	logger         *log.Entry
	metrics        *metrics.HTTPMetrics
	guard          *idempotency.Guard
	requestTimeout time.Duration
}

// Option настраивает роутер.
type Option func(*routerOptions)

// WithLogger задаёт logger для access-лога и ошибок.
func WithLogger(logger *log.Entry) Option {
	return func(o *routerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics включает HTTP-метрики.
func WithMetrics(m *metrics.HTTPMetrics) Option {
	return func(o *routerOptions) {
		o.metrics = m
	}
}

// WithIdempotency включает поддержку Idempotency-Key на POST /oms/user и POST /oms/order.
func WithIdempotency(guard *idempotency.Guard) Option {
	return func(o *routerOptions) {
		o.guard = guard
	}
}

// WithRequestTimeout ограничивает время обработки запроса.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *routerOptions) {
		if timeout > 0 {
			o.requestTimeout = timeout
		}
	}
}

// NewRouter собирает маршруты /oms/*.
func NewRouter(services Services, opts ...Option) http.Handler {
	o := routerOptions{
		logger:         log.WithFields(log.Fields{"component": "http-api", "layer": "transport"}),
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	users := &userHandler{svc: services.Users, logger: o.logger}
	orders := &orderHandler{orders: services.Orders, products: services.Products, logger: o.logger}
	once := idempotent(o.guard, o.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(o.logger))
	if o.metrics != nil {
		r.Use(instrument(o.metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(limitBody(maxRequestBody))
	r.Use(middleware.Timeout(o.requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/oms", func(r chi.Router) {
		r.Get("/products", orders.listProducts)

		r.With(once).Post("/order", orders.create)
		r.Get("/order", orders.listByDate)
		r.Get("/order/{id}", orders.get)
		r.Put("/order/{id}", orders.update)
		r.Get("/orders", orders.list)
		r.Delete("/orders", orders.deleteAll)
		r.Delete("/orders/{id}", orders.delete)

		r.With(once).Post("/user", users.create)
		r.Get("/users", users.list)
		r.Delete("/users", users.deleteAll)
		r.Get("/user/{id}", users.get)
		r.Put("/user/{id}", users.update)
		r.Delete("/user/{id}", users.delete)
	})

	return r
}
