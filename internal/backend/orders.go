package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/auth"
	"github.com/example/ujyalokhet-storefront/internal/domain/order"
)

type placeOrderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// errorBody covers the error shapes the backend emits: a plain message, an
// error string, or a list of validator entries.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Param   string `json:"param"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	} `json:"errors"`
}

// PlaceOrder validates the request locally, submits it and returns the
// backend's order identifier. Every failure is an *order.Error.
func (c *Client) PlaceOrder(ctx context.Context, token string, req order.Request) (order.ID, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if token != "" && c.tokens != nil && c.tokens.Expired(token) {
		return "", &order.Error{Kind: order.KindAuth, Message: "session token has expired", Err: auth.ErrExpiredToken}
	}

	resp, err := c.do(ctx, token, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post("/orders")
	})
	if err != nil {
		c.logger.Warn("order submission failed", zap.Error(err))
		return "", transportError(err)
	}

	if resp.IsSuccess() {
		var body placeOrderResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil || strings.TrimSpace(body.OrderID) == "" {
			c.logger.Error("order accepted without an order id", zap.Int("status", resp.StatusCode()))
			return "", &order.Error{Kind: order.KindServer, Status: resp.StatusCode(), Message: "response did not include an order id"}
		}
		c.logger.Info("order placed", zap.String("order_id", body.OrderID), zap.String("payment_method", string(req.PaymentMethod)))
		return order.ID(body.OrderID), nil
	}

	orderErr := classify(resp)
	c.logger.Warn("order rejected",
		zap.Int("status", resp.StatusCode()),
		zap.String("kind", string(orderErr.Kind)),
		zap.String("message", orderErr.Message),
	)
	return "", orderErr
}

// ListOrders returns the authenticated customer's orders, newest first.
func (c *Client) ListOrders(ctx context.Context, token string) ([]order.Record, error) {
	if token == "" {
		return nil, &order.Error{Kind: order.KindAuth, Message: "login required", Err: auth.ErrMissingToken}
	}
	if c.tokens != nil && c.tokens.Expired(token) {
		return nil, &order.Error{Kind: order.KindAuth, Message: "session token has expired", Err: auth.ErrExpiredToken}
	}

	resp, err := c.do(ctx, token, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/orders")
	})
	if err != nil {
		return nil, transportError(err)
	}
	if !resp.IsSuccess() {
		return nil, classify(resp)
	}

	records, err := decodeRecords(resp.Body())
	if err != nil {
		return nil, &order.Error{Kind: order.KindServer, Status: resp.StatusCode(), Message: "unreadable order list", Err: err}
	}
	sortNewestFirst(records, func(r order.Record) time.Time { return r.CreatedAt })
	return records, nil
}

func decodeRecords(body []byte) ([]order.Record, error) {
	var records []order.Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}
	var wrapped struct {
		Orders []order.Record `json:"orders"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Orders, nil
}

func transportError(err error) *order.Error {
	msg := "order service unreachable"
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		msg = "order service temporarily unavailable"
	}
	return &order.Error{Kind: order.KindTransport, Message: msg, Err: err}
}

// classify maps a non-2xx response onto the order error taxonomy.
func classify(resp *resty.Response) *order.Error {
	status := resp.StatusCode()
	e := &order.Error{Status: status}

	var body errorBody
	if json.Unmarshal(resp.Body(), &body) == nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
		for _, fe := range body.Errors {
			field := firstNonEmpty(fe.Field, fe.Path, fe.Param)
			msg := firstNonEmpty(fe.Message, fe.Msg)
			if field == "" && msg == "" {
				continue
			}
			e.Fields = append(e.Fields, order.FieldError{Field: field, Message: msg})
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = order.KindAuth
	case status >= http.StatusInternalServerError:
		e.Kind = order.KindServer
	case status >= http.StatusBadRequest:
		e.Kind = order.KindValidation
	default:
		e.Kind = order.KindServer
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
