package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", WithListRetry(3, time.Millisecond, 5*time.Millisecond))
	require.NoError(t, err)
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
}

func TestListOrders_RetriesTransientFailures(t *testing.T) {
	var n int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		if atomic.AddInt32(&n, 1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, pkg.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Error: "try again"})
			return
		}
		writeJSON(w, http.StatusOK, views.OrdersResponse{Orders: []views.OrderView{{ID: 1}}, Count: 1})
	})

	out, err := c.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestListOrders_GivesUpAfterThreeAttempts(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, pkg.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Error: "down"})
	})

	_, err := c.ListOrders(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "STORAGE_UNAVAILABLE", apiErr.Code)
	assert.True(t, apiErr.Retryable())
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestSubmitOrder_IsNeverRetried(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, pkg.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Error: "down"})
	})

	_, err := c.SubmitOrder(context.Background(), views.OrderRequest{Side: "Buy", Tenor: "10Y", IssuanceType: "OTR", Quantity: "1000", Yield: "4.1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestSubmitOrder_DecodesValidationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body views.OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, json.Number("1500"), body.Quantity)
		writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{
			Code:   "APP_VALIDATION_FAILED",
			Error:  "quantity must be a multiple of 1000",
			Fields: []pkg.FieldError{{Field: "quantity", Message: "quantity must be a multiple of 1000"}},
		})
	})

	_, err := c.SubmitOrder(context.Background(), views.OrderRequest{Side: "Buy", Tenor: "10Y", IssuanceType: "OTR", Quantity: "1500", Yield: "4.1"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.False(t, apiErr.Retryable())
	assert.Equal(t, "quantity must be a multiple of 1000", apiErr.Message)
	require.Len(t, apiErr.Fields, 1)
}

func TestListOrders_ClientErrorIsNotRetried(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Code: "APP_INVALID_INPUT", Error: "bad"})
	})
	_, err := c.ListOrders(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestYieldQueries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/yields/treasury":
			if q.Get("date") != "" {
				assert.Equal(t, "previous", q.Get("fallback"))
				writeJSON(w, http.StatusOK, views.CurveView{Date: q.Get("date"), Yields: map[string]int{"10 Yr": 457}})
				return
			}
			assert.Equal(t, "2024,2025", q.Get("years"))
			assert.Equal(t, "2024-12-30", q.Get("start_date"))
			writeJSON(w, http.StatusOK, views.CurveRangeView{Source: "treasury.gov", Years: []string{"2024", "2025"}, Count: 0})
		case "/api/yields/treasury/tenor":
			assert.Equal(t, "10Y", q.Get("tenor"))
			writeJSON(w, http.StatusOK, views.TenorYieldView{Tenor: "10Y", Label: "10 Yr", YieldBP: 457, Yield: 4.57})
		default:
			writeJSON(w, http.StatusNotFound, pkg.ErrorResponse{Code: "APP_NOT_FOUND", Error: "no route"})
		}
	})
	ctx := context.Background()

	curve, err := c.CurveForDate(ctx, "2025-01-03", true)
	require.NoError(t, err)
	assert.Equal(t, 457, curve.Yields["10 Yr"])

	rng, err := c.CurvesForRange(ctx, RangeQuery{Years: []int{2024, 2025}, StartDate: "2024-12-30"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024", "2025"}, rng.Years)

	ty, err := c.YieldForTenor(ctx, "10Y", "")
	require.NoError(t, err)
	assert.Equal(t, "10 Yr", ty.Label)

	_, err = c.GetOrder(ctx, 7)
	assert.True(t, IsNotFound(err))
}
