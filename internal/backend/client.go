package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/auth"
	"github.com/example/ujyalokhet-storefront/internal/logging"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnavailable     = errors.New("backend unavailable")
)

// errServerStatus marks a 5xx response so the breaker counts it as a failure.
var errServerStatus = errors.New("backend server error")

// Client talks to the marketplace REST backend. Transport failures and 5xx
// responses trip a circuit breaker; 4xx responses do not.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	tokens  *auth.Inspector
	logger  *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.Component(logger, "backend")
	}
}

// WithInspector enables the expired-token fail fast on order placement.
func WithInspector(inspector *auth.Inspector) Option {
	return func(c *Client) {
		c.tokens = inspector
	}
}

// WithBreakerSettings replaces the default breaker settings.
func WithBreakerSettings(settings gobreaker.Settings) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker[*resty.Response](settings)
	}
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:3000/api.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:   httpClient,
		logger: zap.NewNop(),
		breaker: gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
			Name:        "backend",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// do runs one request through the breaker. A non-nil response is returned for
// every status code; err is set only for transport failures and an open
// breaker.
func (c *Client) do(ctx context.Context, token string, call func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		req := c.http.R().SetContext(ctx)
		if token != "" {
			req.SetAuthToken(token)
		}
		resp, err := call(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	return resp, err
}

// backendProduct is the catalog document returned by GET /products/{id}.
type backendProduct struct {
	MongoID  string          `json:"_id"`
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Price    json.Number     `json:"price"`
	Quantity int             `json:"quantity"`
}

func (p backendProduct) id() string {
	if p.MongoID != "" {
		return p.MongoID
	}
	var s string
	if json.Unmarshal(p.ID, &s) == nil {
		return s
	}
	return strings.Trim(string(p.ID), `"`)
}

func decodeProduct(body []byte) (backendProduct, error) {
	var p backendProduct
	if err := json.Unmarshal(body, &p); err != nil {
		return backendProduct{}, err
	}
	if p.id() != "" {
		return p, nil
	}

	var wrapped struct {
		Product *backendProduct `json:"product"`
		Data    *backendProduct `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return backendProduct{}, err
	}
	switch {
	case wrapped.Product != nil:
		return *wrapped.Product, nil
	case wrapped.Data != nil:
		return *wrapped.Data, nil
	}
	return p, nil
}

// sortNewestFirst orders records by creation time, newest first.
func sortNewestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

func unexpectedStatus(resp *resty.Response) error {
	return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
}
