package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/client"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const treasuryCSV = "Date,1 Mo,1.5 Month,2 Mo,10 Yr,30 Yr\n" +
	"01/03/2025,4.37,4.35,4.33,4.60,4.82\n" +
	"01/02/2025,4.38,4.36,4.34,4.57,N/A\n"

func init() {
	gin.SetMode(gin.TestMode)
}

// startOrderAPI runs the app in-process with in-memory storage and a fake yield source.
func startOrderAPI(t *testing.T) (*client.Client, *int32) {
	t.Helper()

	var upstreamCalls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&upstreamCalls, 1)
		if !strings.HasPrefix(r.URL.Path, "/2025") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(treasuryCSV))
	}))
	t.Cleanup(upstream.Close)

	cfg := &configs.Config{
		Port:                "0",
		LogLevel:            "info",
		StorageDriver:       configs.StorageDriverMemory,
		YieldSourceURL:      upstream.URL + "/{year}.csv",
		YieldStaleTime:      5 * time.Minute,
		YieldRetentionTime:  10 * time.Minute,
		UpstreamTimeout:     2 * time.Second,
		UpstreamMaxAttempts: 1,
		UpstreamMaxBackoff:  time.Second,
		SubmitRateLimit:     100,
		SubmitBurst:         100,
		CorsAllowedOrigins:  "http://localhost:5173",
		ShutdownTimeout:     time.Second,
	}
	srv, cleanup, err := NewApp(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	api := httptest.NewServer(srv.Handler)
	t.Cleanup(api.Close)

	c, err := client.New(api.URL, client.WithListRetry(1, time.Millisecond, time.Millisecond))
	require.NoError(t, err)
	return c, &upstreamCalls
}

func TestOrderAPI_SubmitAndList(t *testing.T) {
	c, _ := startOrderAPI(t)
	ctx := context.Background()

	created, err := c.SubmitOrder(ctx, views.OrderRequest{
		Side: "Buy", Tenor: "2M", IssuanceType: "WI", Quantity: "3000", Yield: "4.33",
	})
	require.NoError(t, err)
	assert.Equal(t, "Order created successfully", created.Message)

	_, err = c.SubmitOrder(ctx, views.OrderRequest{
		Side: "Buy", Tenor: "2M", IssuanceType: "WI", Quantity: "2500", Yield: "4.33",
	})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "quantity must be a multiple of 1000", apiErr.Message)

	list, err := c.ListOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.OrderID, list.Orders[0].ID)
	assert.Equal(t, int64(3000), list.Orders[0].Quantity)
}

func TestOrderAPI_YieldsAreCached(t *testing.T) {
	c, calls := startOrderAPI(t)
	ctx := context.Background()

	curve, err := c.CurveForDate(ctx, "2025-01-02", false)
	require.NoError(t, err)
	assert.Equal(t, 457, curve.Yields["10 Yr"])
	_, hasThirty := curve.Yields["30 Yr"]
	assert.False(t, hasThirty, "N/A cells are omitted")

	tenor, err := c.YieldForTenor(ctx, "1.5M", "2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", tenor.Date)
	assert.Equal(t, 435, tenor.YieldBP)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	_, err = c.CurveForDate(ctx, "2025-01-01", false)
	assert.True(t, client.IsNotFound(err))
}

func TestOrderAPI_CORSPreflight(t *testing.T) {
	cfg := &configs.Config{
		Port:                "0",
		StorageDriver:       configs.StorageDriverMemory,
		YieldSourceURL:      "http://127.0.0.1:1/{year}",
		YieldStaleTime:      time.Minute,
		YieldRetentionTime:  2 * time.Minute,
		UpstreamTimeout:     time.Second,
		UpstreamMaxAttempts: 1,
		UpstreamMaxBackoff:  time.Second,
		CorsAllowedOrigins:  "http://localhost:5173",
	}
	srv, cleanup, err := NewApp(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	defer cleanup()

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(pkg.HeaderTraceId))
}
