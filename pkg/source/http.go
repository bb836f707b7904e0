package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkarlsen/biolens/pkg/cache"
	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/observability"
)

// ExperimentsPath is the well-known endpoint the backing service exposes.
const ExperimentsPath = "/api/experiments"

const httpTimeout = 10 * time.Second

// payload is the wire shape of the experiments endpoint.
type payload struct {
	Experiments []graph.Record `json:"experiments"`
}

// HTTPSource fetches experiment records over HTTP with automatic retries for
// transient failures.
type HTTPSource struct {
	baseURL    string
	http       *http.Client
	headers    map[string]string
	attempts   int
	retryDelay time.Duration
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client, mainly for tests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.http = c }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(h map[string]string) HTTPOption {
	return func(s *HTTPSource) { s.headers = h }
}

// WithRetry overrides the retry schedule for transient failures.
func WithRetry(attempts int, delay time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.attempts, s.retryDelay = attempts, delay }
}

// NewHTTPSource creates a source reading from baseURL + ExperimentsPath.
func NewHTTPSource(baseURL string, opts ...HTTPOption) (*HTTPSource, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid source URL: %s", baseURL)
	}
	s := &HTTPSource{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		http:       &http.Client{Timeout: httpTimeout},
		attempts:   3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *HTTPSource) Name() string { return s.baseURL }

// Fetch retrieves all experiment records. Network errors and 5xx responses
// are retried with backoff; other failures return immediately.
func (s *HTTPSource) Fetch(ctx context.Context) ([]graph.Record, error) {
	endpoint := s.baseURL + ExperimentsPath

	var p payload
	err := cache.Retry(ctx, s.attempts, s.retryDelay, func() error {
		return s.fetchOnce(ctx, endpoint, &p)
	})
	if err != nil {
		return nil, err
	}
	return p.Experiments, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, endpoint string, p *payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)

	resp, err := s.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch experiments"))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode experiments payload")
	}
	return nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeDatasetNotFound, "experiments endpoint not found")
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "server error: %s", http.StatusText(code)))
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status: %s", http.StatusText(code))
	}
}
