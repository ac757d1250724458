package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ujyalokhet-storefront/internal/auth"
	"github.com/example/ujyalokhet-storefront/internal/domain/order"
)

const (
	productA = "665f1c2e9b1d4a0012a3b4c5"
	productB = "665f1c2e9b1d4a0012a3b4c6"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", 2*time.Second, opts...)
}

func validOrder() order.Request {
	return order.Request{
		Products:        []order.Item{{ProductID: productA, Quantity: 2}, {ProductID: productB, Quantity: 1}},
		DeliveryAddress: order.DeliveryAddress{Province: "Bagmati", City: "Lalitpur", Street: "Jhamsikhel", Phone: "9800000000"},
		PaymentMethod:   order.PaymentCashOnDelivery,
		PaymentStatus:   order.PaymentPending,
	}
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func asOrderError(t *testing.T, err error) *order.Error {
	t.Helper()
	var orderErr *order.Error
	require.True(t, errors.As(err, &orderErr), "expected *order.Error, got %T: %v", err, err)
	return orderErr
}

// ============================================
// PlaceOrder Tests
// ============================================

func TestClient_PlaceOrder_Success(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		respond(http.StatusCreated, `{"message":"Order placed","orderId":"order-42"}`)(w, r)
	})

	id, err := client.PlaceOrder(context.Background(), "tok", validOrder())

	require.NoError(t, err)
	assert.Equal(t, order.ID("order-42"), id)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "cash_on_delivery", gotBody["paymentMethod"])
	assert.Len(t, gotBody["products"], 2)
}

func TestClient_PlaceOrder_ValidationFailsBeforeSending(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	req := validOrder()
	req.Products[1].ProductID = "not-an-id"

	_, err := client.PlaceOrder(context.Background(), "tok", req)

	orderErr := asOrderError(t, err)
	assert.Equal(t, order.KindValidation, orderErr.Kind)
	require.Len(t, orderErr.Fields, 1)
	assert.Equal(t, "products[1].productId", orderErr.Fields[0].Field)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClient_PlaceOrder_ExpiredTokenFailsFast(t *testing.T) {
	var calls int32
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	inspector := auth.NewInspector("", auth.WithClock(func() time.Time { return now }))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, WithInspector(inspector))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
	}).SignedString([]byte("backend"))
	require.NoError(t, err)

	_, err = client.PlaceOrder(context.Background(), token, validOrder())

	orderErr := asOrderError(t, err)
	assert.Equal(t, order.KindAuth, orderErr.Kind)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClient_PlaceOrder_Classification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    order.Kind
		message string
	}{
		{"bad request", http.StatusBadRequest, `{"message":"Insufficient stock for Tomatoes"}`, order.KindValidation, "Insufficient stock for Tomatoes"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"error":"invalid"}`, order.KindValidation, "invalid"},
		{"not found", http.StatusNotFound, `{}`, order.KindValidation, ""},
		{"unauthorized", http.StatusUnauthorized, `{"message":"No token"}`, order.KindAuth, "No token"},
		{"forbidden", http.StatusForbidden, `{"message":"Consumers only"}`, order.KindAuth, "Consumers only"},
		{"server error", http.StatusInternalServerError, `oops`, order.KindServer, ""},
		{"success without id", http.StatusOK, `{"message":"ok"}`, order.KindServer, "response did not include an order id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, respond(tt.status, tt.body))

			_, err := client.PlaceOrder(context.Background(), "tok", validOrder())

			orderErr := asOrderError(t, err)
			assert.Equal(t, tt.kind, orderErr.Kind)
			assert.Equal(t, tt.status, orderErr.Status)
			assert.Equal(t, tt.message, orderErr.Message)
		})
	}
}

func TestClient_PlaceOrder_ServerFieldErrors(t *testing.T) {
	client := newTestClient(t, respond(http.StatusBadRequest,
		`{"errors":[{"path":"deliveryAddress.phone","msg":"Phone is required"}]}`))

	_, err := client.PlaceOrder(context.Background(), "tok", validOrder())

	orderErr := asOrderError(t, err)
	assert.Equal(t, []order.FieldError{{Field: "deliveryAddress.phone", Message: "Phone is required"}}, orderErr.Fields)
}

func TestClient_PlaceOrder_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(srv.URL, time.Second)

	_, err := client.PlaceOrder(context.Background(), "tok", validOrder())

	orderErr := asOrderError(t, err)
	assert.Equal(t, order.KindTransport, orderErr.Kind)
	assert.True(t, orderErr.Retryable())
}

func TestClient_PlaceOrder_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithBreakerSettings(gobreaker.Settings{
		Name:        "test",
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 },
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.PlaceOrder(ctx, "tok", validOrder())
		assert.Equal(t, order.KindServer, asOrderError(t, err).Kind)
	}
	_, err := client.PlaceOrder(ctx, "tok", validOrder())

	orderErr := asOrderError(t, err)
	assert.Equal(t, order.KindTransport, orderErr.Kind)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_PlaceOrder_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}, WithBreakerSettings(gobreaker.Settings{
		Name:        "test",
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 },
	}))

	for i := 0; i < 3; i++ {
		_, err := client.PlaceOrder(context.Background(), "tok", validOrder())
		assert.Equal(t, order.KindValidation, asOrderError(t, err).Kind)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// ============================================
// ListOrders Tests
// ============================================

func TestClient_ListOrders_NewestFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		respond(http.StatusOK, `[
			{"_id":"old","totalAmount":100,"status":"delivered","createdAt":"2025-05-01T10:00:00Z"},
			{"_id":"new","totalAmount":310,"status":"pending","createdAt":"2025-06-10T10:00:00Z"}
		]`)(w, r)
	})

	records, err := client.ListOrders(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, order.ID("new"), records[0].ID)
	assert.Equal(t, order.ID("old"), records[1].ID)
	assert.True(t, decimal.NewFromInt(310).Equal(records[0].TotalAmount))
}

func TestClient_ListOrders_WrappedBody(t *testing.T) {
	client := newTestClient(t, respond(http.StatusOK, `{"orders":[{"_id":"only"}]}`))

	records, err := client.ListOrders(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, order.ID("only"), records[0].ID)
}

func TestClient_ListOrders_RequiresToken(t *testing.T) {
	client := New("http://127.0.0.1:1", time.Second)

	_, err := client.ListOrders(context.Background(), "")

	assert.Equal(t, order.KindAuth, asOrderError(t, err).Kind)
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

// ============================================
// GetProduct Tests
// ============================================

func TestClient_GetProduct_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/"+productA, r.URL.Path)
		respond(http.StatusOK, `{"_id":"`+productA+`","name":"Tomatoes","price":80.5,"quantity":12,"category":"vegetables"}`)(w, r)
	})

	p, err := client.GetProduct(context.Background(), productA)

	require.NoError(t, err)
	assert.Equal(t, productA, p.ID)
	assert.Equal(t, "Tomatoes", p.Name)
	assert.Equal(t, 12, p.Stock)
	assert.True(t, decimal.RequireFromString("80.5").Equal(p.Price))
}

func TestClient_GetProduct_WrappedBody(t *testing.T) {
	client := newTestClient(t, respond(http.StatusOK, `{"product":{"_id":"`+productB+`","name":"Potatoes","price":"150","quantity":3}}`))

	p, err := client.GetProduct(context.Background(), productB)

	require.NoError(t, err)
	assert.Equal(t, productB, p.ID)
	assert.True(t, decimal.NewFromInt(150).Equal(p.Price))
}

func TestClient_GetProduct_NotFound(t *testing.T) {
	client := newTestClient(t, respond(http.StatusNotFound, `{"message":"Product not found"}`))

	_, err := client.GetProduct(context.Background(), productA)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestClient_GetProduct_ServerError(t *testing.T) {
	client := newTestClient(t, respond(http.StatusServiceUnavailable, ``))

	_, err := client.GetProduct(context.Background(), productA)

	assert.ErrorIs(t, err, ErrUnavailable)
}
