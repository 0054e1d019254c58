package router

import (
	"context"
	"log/slog"
	"net/http"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bootstrap "github.com/stockwolf/billing-api/api/bootstrap"
	"github.com/stockwolf/billing-api/api/middleware"
	"github.com/stockwolf/billing-api/api/services/billing/httpapi"
)

// Route paths served by the API.
const (
	PathCheckout      = "/api/billing/checkout"
	PathStripeWebhook = "/api/stripe/webhook"
	PathActiveClients = "/api/clients/active"
	PathHealth        = "/health"
	PathMetrics       = "/metrics"
)

type route struct {
	method  string
	path    string
	handler http.Handler
}

// NewRouter returns the central HTTP router for the API, built on the
// grpc-gateway ServeMux.
func NewRouter(a *bootstrap.App) http.Handler {
	middleware.InitPrometheus()
	h := httpapi.NewHandler(a.Service, a.Store, a.Config.StoreTimeout)

	routes := []route{
		{http.MethodPost, PathCheckout, middleware.RateLimit(a.CheckoutLimiter)(http.HandlerFunc(h.Checkout))},
		{http.MethodPost, PathStripeWebhook, http.HandlerFunc(h.StripeWebhook)},
		{http.MethodGet, PathActiveClients, http.HandlerFunc(h.ActiveClients)},
		{http.MethodGet, PathHealth, http.HandlerFunc(h.Health)},
		{http.MethodGet, PathMetrics, middleware.BasicAuth(a.Config.MetricsUser, a.Config.MetricsPass)(promhttp.Handler())},
	}

	mux := runtime.NewServeMux(runtime.WithRoutingErrorHandler(routingError))
	paths := make([]string, 0, len(routes))
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.path, adapt(rt.handler)); err != nil {
			slog.Error("failed to register route", "method", rt.method, "path", rt.path, "err", err)
		}
		paths = append(paths, rt.path)
	}

	var handler http.Handler = mux
	if len(a.Config.AllowedOrigins) > 0 {
		handler = gorillaHandlers.CORS(
			gorillaHandlers.AllowedOrigins(a.Config.AllowedOrigins),
			gorillaHandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			gorillaHandlers.AllowedHeaders([]string{"Content-Type", middleware.RequestIDHeader}),
			gorillaHandlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
		)(handler)
	}
	handler = middleware.Monitor(paths...)(handler)
	handler = middleware.RequestID(handler)
	return gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError)),
	)(handler)
}

func adapt(h http.Handler) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		h.ServeHTTP(w, r)
	}
}

func routingError(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, _ *http.Request, status int) {
	msg := "not_found"
	switch status {
	case http.StatusMethodNotAllowed:
		msg = "method_not_allowed"
	case http.StatusBadRequest:
		msg = "bad_request"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
