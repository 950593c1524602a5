package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the middleware chain, the climate routes and the metrics
// endpoint onto a fresh router
func NewRouter(h *ClimateHandler, mw *Middleware, metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	mw.Register(router)

	router.Handle("/metrics", metricsHandler).Methods("GET")
	h.RegisterRoutes(router)

	return router
}
