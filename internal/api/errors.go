package api

import (
	"errors"
	"net/http"

	"github.com/example/ujyalokhet-storefront/internal/backend"
	"github.com/example/ujyalokhet-storefront/internal/command"
	"github.com/example/ujyalokhet-storefront/internal/domain/order"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Kind   string             `json:"kind"`
	Fields []order.FieldError `json:"fields,omitempty"`
}

// respondError maps domain errors onto status codes. Order failures keep their
// taxonomy so the client can tell a rejected order from an unreachable backend.
func respondError(w http.ResponseWriter, err error) {
	status, body := describeError(err)
	respondJSON(w, status, body)
}

func describeError(err error) (int, ErrorResponse) {
	var orderErr *order.Error
	if errors.As(err, &orderErr) {
		body := ErrorResponse{Error: orderErr.UserMessage(), Kind: string(orderErr.Kind), Fields: orderErr.Fields}
		switch orderErr.Kind {
		case order.KindValidation:
			return http.StatusBadRequest, body
		case order.KindAuth:
			return http.StatusUnauthorized, body
		case order.KindTransport:
			return http.StatusServiceUnavailable, body
		default:
			return http.StatusBadGateway, body
		}
	}

	switch {
	case errors.Is(err, errInvalidBody), errors.Is(err, command.ErrMissingItem):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: string(order.KindValidation)}
	case errors.Is(err, backend.ErrProductNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Product not found.", Kind: "not_found"}
	case errors.Is(err, command.ErrNotInCart):
		return http.StatusNotFound, ErrorResponse{Error: "This product is not in your cart.", Kind: "not_found"}
	case errors.Is(err, command.ErrOutOfStock):
		return http.StatusConflict, ErrorResponse{Error: "This product is out of stock.", Kind: "out_of_stock"}
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "The catalog is unavailable. Please try again.", Kind: string(order.KindTransport)}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: "internal"}
}
