package httpapi

import (
	"net/http"

	"frontdesk-order-services/internal/auth"
	"frontdesk-order-services/internal/config"
	"frontdesk-order-services/internal/http/handlers"
	"frontdesk-order-services/internal/middleware"
	"frontdesk-order-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Deps struct {
	Handler *handlers.Handler
	// Realtime serves /ws; nil disables the endpoint.
	Realtime http.Handler
	Latency  *middleware.LatencyTracker
	Logger   *zap.Logger
	Config   config.Config
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	h := deps.Handler
	latency := deps.Latency
	if latency == nil {
		latency = middleware.NewLatencyTracker(200)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(deps.Logger, latency))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Request-Id",
				"X-Void-Pin",
			},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.Realtime != nil {
		r.Get("/ws", deps.Realtime.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(setResponseHeader("Cache-Control", "no-store"))
		r.Use(middleware.StaffAuth(cfg.JWTSecret))

		r.Get("/telemetry/latency", func(w http.ResponseWriter, r *http.Request) {
			response.Success(w, latency.Snapshot())
		})

		r.Route("/tables", func(r chi.Router) {
			r.Use(middleware.Require(auth.PermTables))
			r.Get("/", h.ListTables)
			r.Get("/{tableID}", h.GetTable)
			r.Post("/{tableID}/session", h.StartSession)
			r.Delete("/{tableID}/session", h.EndSession)
			r.Put("/{tableID}/status", h.SetTableStatus)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.Require(auth.PermOrders)).Post("/", h.CreateOrder)
			r.With(middleware.Require(auth.PermOrders)).Get("/{orderID}", h.GetOrder)
			r.With(middleware.Require(auth.PermOrders)).Post("/{orderID}/items", h.AddItems)
			r.With(middleware.Require(auth.PermOrders)).Post("/{orderID}/cancel", h.CancelOrder)
			r.With(middleware.Require(auth.PermOrders)).Post("/{orderID}/kot", h.SendKOT)
			r.With(middleware.Require(auth.PermBilling)).Post("/{orderID}/discounts", h.ApplyDiscount)
			r.With(middleware.Require(auth.PermBilling)).Post("/{orderID}/bill", h.GenerateBill)
			r.With(middleware.Require(auth.PermBilling)).Get("/{orderID}/invoice.pdf", h.InvoicePDF)
			r.With(middleware.Require(auth.PermBilling)).Get("/{orderID}/invoice/link", h.InvoiceLink)
			r.With(middleware.Require(auth.PermPayments)).Post("/{orderID}/payments", h.RecordPayment)
		})

		r.Route("/order-items/{itemID}", func(r chi.Router) {
			r.With(middleware.Require(auth.PermOrders)).Post("/cancel", h.CancelItem)
			r.With(middleware.Require(auth.PermKitchen)).Post("/ready", h.MarkItemReady)
		})

		r.Route("/kots", func(r chi.Router) {
			r.Use(middleware.Require(auth.PermKitchen))
			r.Get("/", h.ListKOTs)
			r.Get("/{kotID}", h.GetKOT)
			r.Post("/{kotID}/accept", h.AcceptKOT)
			r.Post("/{kotID}/preparing", h.StartPreparingKOT)
			r.Post("/{kotID}/ready", h.MarkKOTReady)
			r.Post("/{kotID}/served", h.MarkKOTServed)
			r.Post("/{kotID}/cancel", h.CancelKOT)
		})
	})

	return r
}

func setResponseHeader(name string, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(name, value)
			next.ServeHTTP(w, r)
		})
	}
}
