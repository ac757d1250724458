package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/api/middleware"
	"github.com/example/ujyalokhet-storefront/internal/command"
	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/logging"
	"github.com/example/ujyalokhet-storefront/internal/payment/esewa"
	"github.com/example/ujyalokhet-storefront/internal/query"
)

var errInvalidBody = errors.New("invalid JSON body")

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	navigator    esewa.FormNavigator
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logging.Component(logger, "api"),
	}
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.queryHandler.GetCart(r.Context(), middleware.GetSessionID(r.Context()))
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errInvalidBody)
		return
	}
	cmd.SessionID = middleware.GetSessionID(r.Context())

	change, err := h.cmdHandler.AddToCart(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse(r, change))
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateCartItem
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errInvalidBody)
		return
	}
	cmd.SessionID = middleware.GetSessionID(r.Context())
	cmd.ProductID = chi.URLParam(r, "productID")

	change, err := h.cmdHandler.UpdateCartItem(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse(r, change))
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.cmdHandler.RemoveFromCart(r.Context(), command.RemoveFromCart{
		SessionID: middleware.GetSessionID(r.Context()),
		ProductID: chi.URLParam(r, "productID"),
	})
	h.GetCart(w, r)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cmdHandler.ClearCart(r.Context(), command.ClearCart{SessionID: middleware.GetSessionID(r.Context())})
	h.GetCart(w, r)
}

type cartChangeResponse struct {
	Change command.CartChange   `json:"change"`
	Cart   *query.CartReadModel `json:"cart"`
}

func (h *Handlers) cartResponse(r *http.Request, change command.CartChange) cartChangeResponse {
	return cartChangeResponse{
		Change: change,
		Cart:   h.queryHandler.GetCart(r.Context(), middleware.GetSessionID(r.Context())),
	}
}

// Checkout Handlers

type paymentFormResponse struct {
	FormURL string            `json:"form_url"`
	Fields  map[string]string `json:"fields"`
}

type checkoutResponse struct {
	command.CheckoutResult
	Message string               `json:"message"`
	Payment *paymentFormResponse `json:"payment,omitempty"`
}

// Checkout places the order. For eSewa a browser request gets the
// self-submitting form; API clients get the signed fields as JSON.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var cmd command.Checkout
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, errInvalidBody)
		return
	}
	cmd.SessionID = middleware.GetSessionID(r.Context())
	cmd.Token = middleware.GetToken(r.Context())

	result, err := h.cmdHandler.Checkout(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}

	if result.Payment != nil && wantsHTML(r) {
		if err := h.navigator.Navigate(w, *result.Payment); err != nil {
			h.logger.Error("failed to render payment form", zap.String("order_id", string(result.OrderID)), zap.Error(err))
		}
		return
	}

	resp := checkoutResponse{CheckoutResult: result, Message: "Order placed successfully."}
	if result.Payment != nil {
		fields := make(map[string]string)
		for _, f := range result.Payment.Fields() {
			fields[f.Name] = f.Value
		}
		resp.Message = "Order placed. Continue to eSewa to pay."
		resp.Payment = &paymentFormResponse{FormURL: result.Payment.FormURL, Fields: fields}
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) GetSavedAddress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.Address(r.Context(), middleware.GetSessionID(r.Context())))
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.ListOrders(r.Context(), middleware.GetToken(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// Payment Handlers

type paymentResultResponse struct {
	Kind            esewa.ResultKind `json:"kind"`
	Status          esewa.Status     `json:"status,omitempty"`
	Message         string           `json:"message"`
	OrderID         order.ID         `json:"order_id,omitempty"`
	TransactionUUID string           `json:"transaction_uuid,omitempty"`
	TransactionCode string           `json:"transaction_code,omitempty"`
	TotalAmount     string           `json:"total_amount,omitempty"`
	LowTrust        bool             `json:"low_trust,omitempty"`
	CartCleared     bool             `json:"cart_cleared"`
	CleanURL        string           `json:"clean_url"`
}

// PaymentCallback is the eSewa success and failure return address.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	result := h.cmdHandler.HandlePaymentCallback(r.Context(), command.HandlePaymentCallback{
		SessionID: middleware.GetSessionID(r.Context()),
		Token:     middleware.GetToken(r.Context()),
		URL:       r.URL.RequestURI(),
	})

	resp := paymentResultResponse{
		Kind:            result.Kind,
		Status:          result.Status,
		Message:         result.Message,
		OrderID:         result.OrderID,
		TransactionUUID: result.TransactionUUID,
		TransactionCode: result.TransactionCode,
		LowTrust:        result.LowTrust,
		CartCleared:     result.CartCleared,
		CleanURL:        result.CleanURL,
	}
	if !result.TotalAmount.IsZero() {
		resp.TotalAmount = result.TotalAmount.String()
	}
	if resp.Message == "" {
		resp.Message = "No payment response was found."
	}

	if !wantsHTML(r) {
		respondJSON(w, http.StatusOK, resp)
		return
	}
	if err := renderResultPage(w, resp); err != nil {
		h.logger.Error("failed to render payment result", zap.Error(err))
	}
}

func Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// wantsHTML reports whether the client prefers a page over JSON.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return false
	}
	return strings.Contains(accept, "text/html")
}
