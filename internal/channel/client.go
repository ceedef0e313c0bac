package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Fetcher retrieves the raw payload an external system holds for an order
// or tracking-number key.
type Fetcher interface {
	System() string
	FetchOrder(ctx context.Context, key string) (map[string]any, error)
}

// HTTPClient is a Fetcher over a JSON HTTP endpoint, guarded by a circuit
// breaker so a dead external system fails fast instead of eating the
// retry budget of every sync.
type HTTPClient struct {
	system  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[map[string]any]
	logger  zerolog.Logger
}

func NewHTTPClient(system, baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		system:  system,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[map[string]any](gobreaker.Settings{
			Name:        system,
			MaxRequests: 10,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 10 && failureRatio >= 0.6
			},
		}),
		logger: logger,
	}
}

func (c *HTTPClient) System() string { return c.system }

func (c *HTTPClient) FetchOrder(ctx context.Context, key string) (map[string]any, error) {
	return c.breaker.Execute(func() (map[string]any, error) {
		endpoint := fmt.Sprintf("%s/orders/%s", c.baseURL, url.PathEscape(key))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request: %w", c.system, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// Absent remote record is a valid outcome, not a failure.
			return map[string]any{}, nil
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%s returned status %d", c.system, resp.StatusCode)
		}

		var payload map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", c.system, err)
		}
		return payload, nil
	})
}

// ClientRegistry holds one Fetcher per external system.
type ClientRegistry struct {
	clients map[string]Fetcher
}

func NewClientRegistry(fetchers ...Fetcher) *ClientRegistry {
	r := &ClientRegistry{clients: make(map[string]Fetcher)}
	for _, f := range fetchers {
		r.Register(f)
	}
	return r
}

func (r *ClientRegistry) Register(f Fetcher) {
	r.clients[f.System()] = f
}

func (r *ClientRegistry) Get(system string) (Fetcher, error) {
	f, ok := r.clients[system]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrClientNotFound, system)
	}
	return f, nil
}
