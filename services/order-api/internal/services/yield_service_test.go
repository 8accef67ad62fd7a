package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingSource serves canned curves per year and counts upstream calls.
type countingSource struct {
	mu    sync.Mutex
	years map[int][]models.YieldCurve
	err   error
	calls int32
	gate  chan struct{}
}

func (c *countingSource) FetchYear(ctx context.Context, year int) ([]models.YieldCurve, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.years[year], nil
}

func (c *countingSource) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *countingSource) Calls() int32 { return atomic.LoadInt32(&c.calls) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func curve(date time.Time, tenYear int) models.YieldCurve {
	return models.YieldCurve{Date: date, Points: map[string]int{"1 Mo": 430, "1.5 Month": 428, "10 Yr": tenYear}}
}

func newSource() *countingSource {
	return &countingSource{years: map[int][]models.YieldCurve{
		2024: {curve(day(2024, 12, 30), 455), curve(day(2024, 12, 31), 458)},
		2025: {curve(day(2025, 1, 2), 457), curve(day(2025, 1, 3), 460), curve(day(2025, 1, 6), 462)},
	}}
}

func newYieldService(src *countingSource, clk *clock.Manual) *YieldServiceImpl {
	cache := NewCurveCache(zap.NewNop(), clk, 10*time.Minute, nil)
	return NewYieldService(zap.NewNop(), src, cache, clk, YieldServiceConfig{
		StaleTime:     5 * time.Minute,
		RetentionTime: 10 * time.Minute,
	})
}

func TestCurveForDate_ExactMatch(t *testing.T) {
	src := newSource()
	svc := newYieldService(src, clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()

	c, err := svc.CurveForDate(context.Background(), "t", day(2025, 1, 3), false)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 1, 3), c.Date)
	assert.Equal(t, 460, c.Points["10 Yr"])
}

func TestCurveForDate_NoDataIsNotFound(t *testing.T) {
	src := newSource()
	svc := newYieldService(src, clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()

	// New Year's Day holiday and a weekend day
	for _, d := range []time.Time{day(2025, 1, 1), day(2025, 1, 4)} {
		_, err := svc.CurveForDate(context.Background(), "t", d, false)
		require.Error(t, err)
		assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode))
	}
}

func TestCurveForDate_FallbackPrevious(t *testing.T) {
	src := newSource()
	svc := newYieldService(src, clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()
	ctx := context.Background()

	// Sunday rolls back to Friday
	c, err := svc.CurveForDate(ctx, "t", day(2025, 1, 5), true)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 1, 3), c.Date)

	// A weekday with no publication serves the latest earlier curve
	c, err = svc.CurveForDate(ctx, "t", day(2025, 1, 8), true)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 1, 6), c.Date)

	// Nothing earlier within the year
	_, err = svc.CurveForDate(ctx, "t", day(2025, 1, 1), true)
	assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode))

	// Unpublished year
	_, err = svc.CurveForDate(ctx, "t", day(2031, 3, 3), true)
	assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode))
}

func TestCurveCacheWindows(t *testing.T) {
	src := newSource()
	clk := clock.NewManual(day(2025, 1, 10))
	svc := newYieldService(src, clk)
	defer svc.Close()
	ctx := context.Background()

	first, err := svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
	require.NoError(t, err)
	require.Equal(t, int32(1), src.Calls())

	// Within stale-time: served from cache, identical data, no upstream call.
	clk.Advance(4 * time.Minute)
	again, err := svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, int32(1), src.Calls())

	// Past retention: evicted, exactly one synchronous refetch.
	clk.Advance(6 * time.Minute)
	_, err = svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.Calls())

	_, err = svc.CurveForDate(ctx, "t", day(2025, 1, 3), false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.Calls())
}

func TestStaleEntryIsServedAndRevalidatedOnce(t *testing.T) {
	src := newSource()
	clk := clock.NewManual(day(2025, 1, 10))
	svc := newYieldService(src, clk)
	ctx := context.Background()

	_, err := svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
	require.NoError(t, err)

	src.gate = make(chan struct{})
	clk.Advance(6 * time.Minute)
	for i := 0; i < 5; i++ {
		c, err := svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
		require.NoError(t, err)
		assert.Equal(t, 457, c.Points["10 Yr"])
	}
	close(src.gate)
	svc.Close()
	assert.Equal(t, int32(2), src.Calls())

	// The revalidated document is fresh again.
	_, err = svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.Calls())
}

func TestMalformedRevalidationKeepsCachedData(t *testing.T) {
	src := newSource()
	clk := clock.NewManual(day(2025, 1, 10))
	svc := newYieldService(src, clk)
	ctx := context.Background()

	_, err := svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
	require.NoError(t, err)

	src.setErr(pkg.NewAppError(pkg.ErrUpstreamMalformedCode, "bad csv", pkg.ErrUpstreamMalformed))
	clk.Advance(6 * time.Minute)
	c, err := svc.CurveForDate(ctx, "t", day(2025, 1, 2), false)
	require.NoError(t, err)
	svc.Close()
	assert.Equal(t, 457, c.Points["10 Yr"])

	c, err = svc.CurveForDate(ctx, "t", day(2025, 1, 3), false)
	require.NoError(t, err)
	assert.Equal(t, 460, c.Points["10 Yr"])
	svc.Close()
}

func TestUpstreamFailureOnMissSurfaces(t *testing.T) {
	src := newSource()
	src.setErr(pkg.NewAppError(pkg.ErrUpstreamUnavailableCode, "down", errors.New("timeout")))
	svc := newYieldService(src, clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()

	_, err := svc.CurveForDate(context.Background(), "t", day(2025, 1, 2), false)
	require.Error(t, err)
	assert.True(t, pkg.IsRetryable(err))
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	src := newSource()
	src.gate = make(chan struct{})
	svc := newYieldService(src, clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CurveForDate(context.Background(), "t", day(2025, 1, 2), false)
			assert.NoError(t, err)
		}()
	}
	// Let the goroutines pile up on the in-flight call before releasing it.
	require.Eventually(t, func() bool { return src.Calls() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	assert.LessOrEqual(t, src.Calls(), int32(2))
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	src := newSource()
	src.gate = make(chan struct{})
	svc := newYieldService(src, clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.CurveForDate(first, "first", day(2025, 1, 2), false)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, time.Millisecond)

	secondErr := make(chan error, 1)
	var second models.YieldCurve
	go func() {
		var err error
		second, err = svc.CurveForDate(context.Background(), "second", day(2025, 1, 2), false)
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(src.gate)
	require.NoError(t, <-secondErr)
	assert.Equal(t, day(2025, 1, 2), second.Date)
	assert.Equal(t, int32(1), src.Calls())
}

func TestCurvesForRange(t *testing.T) {
	src := newSource()
	svc := newYieldService(src, clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()
	ctx := context.Background()

	start, end := day(2024, 12, 31), day(2025, 1, 3)
	res, err := svc.CurvesForRange(ctx, "t", RangeQuery{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, res.Years)
	require.Len(t, res.Curves, 3)
	assert.Equal(t, day(2024, 12, 31), res.Curves[0].Date)
	assert.Equal(t, day(2025, 1, 3), res.Curves[2].Date)

	res, err = svc.CurvesForRange(ctx, "t", RangeQuery{Years: []int{2025, 2024, 2025}})
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, res.Years)
	assert.Len(t, res.Curves, 5)

	res, err = svc.CurvesForRange(ctx, "t", RangeQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, res.Years)

	// A range with no trading days is empty, not an error.
	sat, sun := day(2025, 1, 4), day(2025, 1, 5)
	res, err = svc.CurvesForRange(ctx, "t", RangeQuery{StartDate: &sat, EndDate: &sun})
	require.NoError(t, err)
	assert.Empty(t, res.Curves)
}

func TestCurvesForRange_Rejects(t *testing.T) {
	svc := newYieldService(newSource(), clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()
	ctx := context.Background()

	start, end := day(2025, 2, 1), day(2025, 1, 1)
	_, err := svc.CurvesForRange(ctx, "t", RangeQuery{StartDate: &start, EndDate: &end})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode))

	_, err = svc.CurvesForRange(ctx, "t", RangeQuery{Years: []int{2010, 2011, 2012, 2013, 2014, 2015, 2016, 2017, 2018, 2019, 2020}})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode))
}

func TestYieldForTenor(t *testing.T) {
	svc := newYieldService(newSource(), clock.NewManual(day(2025, 1, 10)))
	defer svc.Close()
	ctx := context.Background()

	v, err := svc.YieldForTenor(ctx, "t", "1.5M", day(2025, 1, 4))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", v.Date)
	assert.Equal(t, "1.5 Month", v.Label)
	assert.Equal(t, 428, v.YieldBP)
	assert.InDelta(t, 4.28, v.Yield, 1e-9)

	_, err = svc.YieldForTenor(ctx, "t", "30Y", day(2025, 1, 6))
	assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode), "30 Yr not in the curve")

	_, err = svc.YieldForTenor(ctx, "t", "15Y", day(2025, 1, 6))
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode))
}
