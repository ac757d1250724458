package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/api/middleware"
	"github.com/example/ujyalokhet-storefront/internal/auth"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	Handlers       *Handlers
	Inspector      *auth.Inspector
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	inspector := cfg.Inspector
	if inspector == nil {
		inspector = auth.NewInspector("")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	h := cfg.Handlers

	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	r.Use(chiMid.Recoverer)
	r.Use(middleware.SessionMiddleware)
	r.Use(middleware.OptionalAuthMiddleware(inspector))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/healthz", Health)

	r.Group(func(r chi.Router) {
		r.Use(chiMid.Timeout(timeout))

		// Cart
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddToCart)
			r.Put("/items/{productID}", h.UpdateCartItem)
			r.Delete("/items/{productID}", h.RemoveFromCart)
		})

		// Checkout
		r.Post("/checkout", h.Checkout)
		r.Get("/checkout/address", h.GetSavedAddress)

		// Orders
		r.Get("/orders", h.GetOrders)

		// Payment gateway return address
		r.Get("/payment/esewa/callback", h.PaymentCallback)
	})

	return r
}
