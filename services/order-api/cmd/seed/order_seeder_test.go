package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nimeshabuddhika/treasury-desk/pkg/client"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestOrderGenerator_ProducesValidOrders(t *testing.T) {
	gen := newOrderGenerator(42, 50, 3.5, 5.5)
	v := validation.NewOrderValidator()
	for i := 0; i < 500; i++ {
		req := gen.Next()
		_, err := v.Validate(req)
		require.NoError(t, err, "order %d: %+v", i, req)
	}
}

func TestSeeder_SubmitsEveryOrder(t *testing.T) {
	var posted int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := atomic.AddInt64(&posted, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(views.CreateOrderResponse{Message: "Order created successfully", OrderID: id})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	s := &Seeder{
		workers:   4,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		client:    c,
		generator: newOrderGenerator(1, 10, 4, 5),
		logger:    zap.NewNop(),
	}
	s.Run(context.Background(), 40)

	assert.Equal(t, int64(40), atomic.LoadInt64(&posted))
	assert.Equal(t, int64(40), s.ok)
	assert.Equal(t, int64(0), s.fail)
}
