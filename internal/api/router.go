package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
	"github.com/sheikh-saqib/currency-ledger/internal/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// balances go out as JSON numbers on every response
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// NewRouter wires the HTTP routes of the ledger service
func NewRouter(service *ledger.Ledger, publisher interfaces.EventPublisher, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := NewHandler(service, publisher, logger)

	r.Post("/users", h.AddUser)
	r.Get("/users/{id}/accounts", h.ListAccounts)
	r.Post("/currencies", h.AddCurrency)

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/top-up", h.TopUp)
		r.Post("/convert", h.Convert)
		r.Get("/balance", h.GetBalance)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
