package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/example/ujyalokhet-storefront/internal/domain/cart"
)

// GetProduct fetches the catalog snapshot a cart line is built from.
func (c *Client) GetProduct(ctx context.Context, id string) (cart.Product, error) {
	if id == "" {
		return cart.Product{}, ErrProductNotFound
	}

	resp, err := c.do(ctx, "", func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/products/" + url.PathEscape(id))
	})
	if err != nil {
		return cart.Product{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return cart.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	case !resp.IsSuccess():
		return cart.Product{}, unexpectedStatus(resp)
	}

	p, err := decodeProduct(resp.Body())
	if err != nil {
		return cart.Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	if p.id() == "" {
		return cart.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}

	price := decimal.Zero
	if p.Price != "" {
		price, err = decimal.NewFromString(p.Price.String())
		if err != nil {
			return cart.Product{}, fmt.Errorf("decode product %s price: %w", id, err)
		}
	}

	return cart.Product{
		ID:    p.id(),
		Name:  p.Name,
		Price: price,
		Stock: max(p.Quantity, 0),
	}, nil
}
