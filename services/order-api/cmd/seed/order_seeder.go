// Order seeder with per-second outbound request throttling.
// - Concurrency is controlled by a fixed worker pool (maxConcurrentRequests)
// - Throughput is controlled by an RPS limiter (token bucket)
// - Orders are random but always valid tickets, posted through pkg/client
// - Graceful shutdown on SIGINT/SIGTERM
//
// Example:
//
//	go run ./services/order-api/cmd/seed \
//	  -noOfOrders=2000 \
//	  -maxConcurrentRequests=20 \
//	  -rps=100 \
//	  -orderApiUrl=http://localhost:8080
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/client"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/pkg/utils"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// --------- CLI flags ---------
var (
	noOfOrders             = flag.Int("noOfOrders", 100, "Total number of orders to seed")
	maxConcurrentRequests  = flag.Int("maxConcurrentRequests", 10, "Max in-flight HTTP requests (worker pool size)")
	maxLots                = flag.Int("maxLots", 50, "Max order size in lots of 1000")
	minYield               = flag.Float64("minYield", 3.5, "Min order yield (percent)")
	maxYield               = flag.Float64("maxYield", 5.5, "Max order yield (percent)")
	orderApiURL            = flag.String("orderApiUrl", "http://localhost:8080", "Order API base URL")
	rps                    = flag.Int("rps", 50, "Global requests-per-second limit for outbound POST /orders")
	rpsBurst               = flag.Int("rpsBurst", 0, "Burst size for the limiter (0 => equals rps)")
	httpClientTimeoutMs    = flag.Int("httpClientTimeoutMs", 4000, "Total HTTP client timeout (ms)")
	responseHeaderTimeoutS = flag.Int("responseHeaderTimeoutS", 3, "Response header timeout (s)")
)

// orderGenerator produces valid order tickets.
type orderGenerator struct {
	mu       sync.Mutex
	rnd      *rand.Rand
	maxLots  int
	minYield float64
	maxYield float64
}

func newOrderGenerator(seed int64, maxLots int, minYield, maxYield float64) *orderGenerator {
	if maxLots < 1 {
		maxLots = 1
	}
	if minYield > maxYield {
		minYield, maxYield = maxYield, minYield
	}
	return &orderGenerator{
		rnd:      rand.New(rand.NewSource(seed)),
		maxLots:  maxLots,
		minYield: minYield,
		maxYield: maxYield,
	}
}

func (g *orderGenerator) Next() views.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	quantity := int64(g.rnd.Intn(g.maxLots)+1) * 1000
	y := decimal.NewFromFloat(g.minYield + g.rnd.Float64()*(g.maxYield-g.minYield)).Round(3)
	if !y.IsPositive() {
		y = decimal.New(1, -3)
	}
	return views.OrderRequest{
		Side:         string(models.Sides[g.rnd.Intn(len(models.Sides))]),
		Tenor:        string(models.Tenors[g.rnd.Intn(len(models.Tenors))]),
		IssuanceType: string(models.IssuanceTypes[g.rnd.Intn(len(models.IssuanceTypes))]),
		Quantity:     json.Number(fmt.Sprintf("%d", quantity)),
		Yield:        json.Number(y.String()),
	}
}

type Seeder struct {
	workers   int
	limiter   *rate.Limiter
	client    *client.Client
	generator *orderGenerator
	logger    *zap.Logger

	// metrics
	enqueued int64
	sent     int64
	ok       int64
	fail     int64
}

func main() {
	flag.Parse()

	pkg.InitLogger("")
	logger := pkg.Logger
	defer logger.Sync()

	if *rps <= 0 {
		logger.Fatal("rps_must_be_positive")
	}
	if *maxConcurrentRequests <= 0 {
		logger.Fatal("maxConcurrentRequests_must_be_positive")
	}
	burst := *rpsBurst
	if burst <= 0 {
		burst = *rps
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpClient := utils.NewHTTPClient(
		utils.WithClientTimeout(time.Duration(*httpClientTimeoutMs)*time.Millisecond),
		utils.WithResponseHeaderTimeout(time.Duration(*responseHeaderTimeoutS)*time.Second),
		utils.WithMaxConnsPerHost(*maxConcurrentRequests),
	)
	apiClient, err := client.New(*orderApiURL, client.WithHTTPClient(httpClient), client.WithLogger(logger))
	if err != nil {
		logger.Fatal("invalid_order_api_url", zap.Error(err))
	}

	seeder := &Seeder{
		workers:   *maxConcurrentRequests,
		limiter:   rate.NewLimiter(rate.Limit(*rps), burst),
		client:    apiClient,
		generator: newOrderGenerator(time.Now().UnixNano(), *maxLots, *minYield, *maxYield),
		logger:    logger,
	}

	start := time.Now()
	logger.Info("start_seeding",
		zap.Int("no_of_orders", *noOfOrders),
		zap.Int("workers", seeder.workers),
		zap.Int("rps", *rps),
		zap.Int("burst", burst),
	)

	seeder.Run(ctx, *noOfOrders)

	logger.Info("seeding_completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int64("enqueued", atomic.LoadInt64(&seeder.enqueued)),
		zap.Int64("sent", atomic.LoadInt64(&seeder.sent)),
		zap.Int64("success", atomic.LoadInt64(&seeder.ok)),
		zap.Int64("failed", atomic.LoadInt64(&seeder.fail)),
	)
	if atomic.LoadInt64(&seeder.fail) > 0 {
		os.Exit(1)
	}
}

// Run submits totalOrders orders and returns when all are sent or ctx is cancelled.
func (s *Seeder) Run(ctx context.Context, totalOrders int) {
	jobs := make(chan views.OrderRequest, min(totalOrders, 1000))

	// progress reporter (1s)
	stopProg := make(chan struct{})
	var progWG sync.WaitGroup
	progWG.Add(1)
	go func() {
		defer progWG.Done()
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopProg:
				return
			case <-t.C:
				s.logger.Info("progress_tick",
					zap.Int64("enqueued", atomic.LoadInt64(&s.enqueued)),
					zap.Int64("sent", atomic.LoadInt64(&s.sent)),
					zap.Int64("success", atomic.LoadInt64(&s.ok)),
					zap.Int64("failed", atomic.LoadInt64(&s.fail)),
				)
			}
		}
	}()

	var workersWG sync.WaitGroup
	workersWG.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer workersWG.Done()
			for order := range jobs {
				// throttle by RPS before sending the request
				if err := s.limiter.Wait(ctx); err != nil {
					return
				}
				s.sendOrder(ctx, order)
			}
		}()
	}

enqueue:
	for i := 0; i < totalOrders; i++ {
		select {
		case <-ctx.Done():
			break enqueue
		case jobs <- s.generator.Next():
			atomic.AddInt64(&s.enqueued, 1)
		}
	}

	close(jobs)
	workersWG.Wait()
	close(stopProg)
	progWG.Wait()
}

func (s *Seeder) sendOrder(ctx context.Context, order views.OrderRequest) {
	start := time.Now()
	atomic.AddInt64(&s.sent, 1)

	resp, err := s.client.SubmitOrder(ctx, order)
	if err != nil {
		atomic.AddInt64(&s.fail, 1)
		s.logger.Error("api_call_failed",
			zap.String("tenor", order.Tenor),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	atomic.AddInt64(&s.ok, 1)
	s.logger.Debug("api_call_completed",
		zap.Int64(pkg.OrderId, resp.OrderID),
		zap.Duration("latency", time.Since(start)),
	)
}
