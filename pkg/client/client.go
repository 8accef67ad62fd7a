package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/utils"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"go.uber.org/zap"
)

// Client is a typed client for the order-api HTTP surface.
// Only ListOrders is retried; order submission is not idempotent.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *zap.Logger
	listAttempts int
	baseBackoff  time.Duration
	maxBackoff   time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithListRetry overrides the listing retry policy (default 3 attempts, 1s base, 30s cap).
func WithListRetry(attempts int, base, max time.Duration) Option {
	return func(c *Client) {
		c.listAttempts = attempts
		c.baseBackoff = base
		c.maxBackoff = max
	}
}

// New builds a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:      u.String(),
		logger:       zap.NewNop(),
		listAttempts: 3,
		baseBackoff:  time.Second,
		maxBackoff:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = utils.NewHTTPClient()
	}
	if c.listAttempts < 1 {
		c.listAttempts = 1
	}
	return c, nil
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []pkg.FieldError
	TraceID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the failure is transient.
func (e *APIError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) SubmitOrder(ctx context.Context, req views.OrderRequest) (views.CreateOrderResponse, error) {
	var out views.CreateOrderResponse
	err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &out)
	return out, err
}

// ListOrders retries transient failures with capped exponential backoff.
func (c *Client) ListOrders(ctx context.Context) (views.OrdersResponse, error) {
	var (
		out views.OrdersResponse
		err error
	)
	for attempt := 1; attempt <= c.listAttempts; attempt++ {
		out = views.OrdersResponse{}
		err = c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &out)
		if err == nil || ctx.Err() != nil || !retryable(err) || attempt == c.listAttempts {
			break
		}
		delay := utils.CalculateExponentialBackoffWithJitter(attempt, c.baseBackoff, c.maxBackoff)
		c.logger.Warn("list_orders_retry", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(delay):
		}
	}
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, id int64) (views.OrderView, error) {
	var out views.OrderView
	err := c.do(ctx, http.MethodGet, "/api/orders/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

// CurveForDate fetches one day's curve. With fallbackPrevious the server answers with the
// latest curve on or before date.
func (c *Client) CurveForDate(ctx context.Context, date string, fallbackPrevious bool) (views.CurveView, error) {
	q := url.Values{"date": {date}}
	if fallbackPrevious {
		q.Set("fallback", "previous")
	}
	var out views.CurveView
	err := c.do(ctx, http.MethodGet, "/api/yields/treasury", q, nil, &out)
	return out, err
}

// RangeQuery selects curves by year list and/or inclusive date bounds (YYYY-MM-DD).
type RangeQuery struct {
	Years     []int
	StartDate string
	EndDate   string
}

func (c *Client) CurvesForRange(ctx context.Context, rq RangeQuery) (views.CurveRangeView, error) {
	q := url.Values{}
	if len(rq.Years) > 0 {
		years := make([]string, 0, len(rq.Years))
		for _, y := range rq.Years {
			years = append(years, strconv.Itoa(y))
		}
		q.Set("years", strings.Join(years, ","))
	}
	if !utils.IsEmpty(rq.StartDate) {
		q.Set("start_date", rq.StartDate)
	}
	if !utils.IsEmpty(rq.EndDate) {
		q.Set("end_date", rq.EndDate)
	}
	var out views.CurveRangeView
	err := c.do(ctx, http.MethodGet, "/api/yields/treasury", q, nil, &out)
	return out, err
}

// YieldForTenor looks up the default yield for a tenor code such as "10Y". An empty date means today.
func (c *Client) YieldForTenor(ctx context.Context, tenor, date string) (views.TenorYieldView, error) {
	q := url.Values{"tenor": {tenor}}
	if !utils.IsEmpty(date) {
		q.Set("date", date)
	}
	var out views.TenorYieldView
	err := c.do(ctx, http.MethodGet, "/api/yields/treasury/tenor", q, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(pkg.HeaderRequestId, uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, TraceID: resp.Header.Get(pkg.HeaderTraceId)}
		var envelope pkg.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Error
			apiErr.Fields = envelope.Fields
		}
		if utils.IsEmpty(apiErr.Message) {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// retryable treats transport failures and 5xx/429 responses as transient.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
