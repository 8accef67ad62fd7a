package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/pkg/treasury"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/clock"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// MaxRangeYears bounds how many upstream year documents one range query may touch.
const MaxRangeYears = 10

type YieldService interface {
	// CurveForDate returns the curve published on date. With fallbackPrevious, weekends roll
	// back to Friday and the latest curve on or before date within its year is returned.
	CurveForDate(ctx context.Context, traceID string, date time.Time, fallbackPrevious bool) (models.YieldCurve, error)
	// CurvesForRange returns curves ascending by date, with the years that were consulted.
	CurvesForRange(ctx context.Context, traceID string, q RangeQuery) (RangeResult, error)
	// YieldForTenor is the default-yield lookup used when a tenor is picked on an order ticket.
	YieldForTenor(ctx context.Context, traceID string, tenor string, date time.Time) (views.TenorYieldView, error)
	// Close waits for background revalidations to finish.
	Close()
}

// RangeQuery bounds are inclusive; nil means unbounded on that side.
type RangeQuery struct {
	Years     []int
	StartDate *time.Time
	EndDate   *time.Time
}

type RangeResult struct {
	Years  []int
	Curves []models.YieldCurve
}

type YieldServiceConfig struct {
	StaleTime         time.Duration
	RetentionTime     time.Duration
	RevalidateTimeout time.Duration
}

type YieldServiceImpl struct {
	logger *zap.Logger
	source treasury.Source
	cache  CurveCache
	clock  clock.Clock
	cfg    YieldServiceConfig

	flight       singleflight.Group
	revalidating sync.Map
	background   sync.WaitGroup
}

func NewYieldService(logger *zap.Logger, source treasury.Source, cache CurveCache, clk clock.Clock, cfg YieldServiceConfig) *YieldServiceImpl {
	if cfg.RevalidateTimeout <= 0 {
		cfg.RevalidateTimeout = time.Minute
	}
	return &YieldServiceImpl{
		logger: logger,
		source: source,
		cache:  cache,
		clock:  clk,
		cfg:    cfg,
	}
}

func (s *YieldServiceImpl) CurveForDate(ctx context.Context, traceID string, date time.Time, fallbackPrevious bool) (models.YieldCurve, error) {
	target := truncateDay(date)
	if fallbackPrevious {
		switch target.Weekday() {
		case time.Saturday:
			target = target.AddDate(0, 0, -1)
		case time.Sunday:
			target = target.AddDate(0, 0, -2)
		}
	}

	curves, err := s.yearCurves(ctx, traceID, target.Year())
	if err != nil {
		return models.YieldCurve{}, err
	}

	if !fallbackPrevious {
		i := sort.Search(len(curves), func(i int) bool { return !curves[i].Date.Before(target) })
		if i < len(curves) && curves[i].Date.Equal(target) {
			return curves[i], nil
		}
		return models.YieldCurve{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode,
			fmt.Sprintf("no yield data for %s", date.Format(pkg.DateLayout)), nil)
	}

	if len(curves) == 0 {
		return models.YieldCurve{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode,
			fmt.Sprintf("no treasury data published for year %d", target.Year()), nil)
	}
	// Index of the first curve after target; the one before it is the latest on or before.
	i := sort.Search(len(curves), func(i int) bool { return curves[i].Date.After(target) })
	if i == 0 {
		return models.YieldCurve{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode,
			"no data available on or before the requested date within this year", nil)
	}
	return curves[i-1], nil
}

func (s *YieldServiceImpl) CurvesForRange(ctx context.Context, traceID string, q RangeQuery) (RangeResult, error) {
	var start, end time.Time
	if q.StartDate != nil {
		start = truncateDay(*q.StartDate)
	}
	if q.EndDate != nil {
		end = truncateDay(*q.EndDate)
	}
	if q.StartDate != nil && q.EndDate != nil && start.After(end) {
		return RangeResult{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "start_date must not be after end_date", nil)
	}

	years := s.rangeYears(q, start, end)
	if len(years) > MaxRangeYears {
		return RangeResult{}, pkg.NewAppError(pkg.ErrInvalidInputCode,
			fmt.Sprintf("a range query may span at most %d years", MaxRangeYears), nil)
	}

	perYear := make([][]models.YieldCurve, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, year := range years {
		i, year := i, year
		g.Go(func() error {
			curves, err := s.yearCurves(gctx, traceID, year)
			if err != nil {
				return err
			}
			perYear[i] = curves
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RangeResult{}, err
	}

	out := make([]models.YieldCurve, 0)
	for _, curves := range perYear {
		for _, c := range curves {
			if q.StartDate != nil && c.Date.Before(start) {
				continue
			}
			if q.EndDate != nil && c.Date.After(end) {
				continue
			}
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return RangeResult{Years: years, Curves: out}, nil
}

func (s *YieldServiceImpl) YieldForTenor(ctx context.Context, traceID string, tenor string, date time.Time) (views.TenorYieldView, error) {
	label, err := treasury.LabelForTenor(models.Tenor(tenor))
	if err != nil {
		return views.TenorYieldView{}, pkg.NewAppError(pkg.ErrInvalidInputCode, err.Error(), nil)
	}
	curve, err := s.CurveForDate(ctx, traceID, date, true)
	if err != nil {
		return views.TenorYieldView{}, err
	}
	bp, ok := curve.Points[label]
	if !ok {
		return views.TenorYieldView{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode,
			fmt.Sprintf("no %s yield published for %s", label, curve.Date.Format(pkg.DateLayout)), nil)
	}
	return views.TenorYieldView{
		Date:    curve.Date.Format(pkg.DateLayout),
		Tenor:   tenor,
		Label:   label,
		YieldBP: bp,
		Yield:   decimal.New(int64(bp), -2).InexactFloat64(),
	}, nil
}

func (s *YieldServiceImpl) Close() {
	s.background.Wait()
}

// yearCurves serves a year document from cache when retained, revalidating it in the
// background once stale, and fetches synchronously otherwise.
func (s *YieldServiceImpl) yearCurves(ctx context.Context, traceID string, year int) ([]models.YieldCurve, error) {
	if doc, ok := s.cache.Get(ctx, year); ok {
		if s.clock.Now().Sub(doc.FetchedAt) < s.cfg.StaleTime {
			observability.YieldCacheLookups.WithLabelValues("fresh").Inc()
			return doc.Curves, nil
		}
		observability.YieldCacheLookups.WithLabelValues("stale").Inc()
		s.revalidate(traceID, year)
		return doc.Curves, nil
	}

	observability.YieldCacheLookups.WithLabelValues("miss").Inc()
	s.logger.Debug("yield_cache_miss", zap.String(pkg.TraceId, traceID), zap.Int("year", year))
	return s.fetch(ctx, traceID, year)
}

// fetch collapses concurrent misses for one year into a single upstream call. The shared
// call is detached from any one caller's cancellation and bounded by RevalidateTimeout;
// each caller still stops waiting when its own ctx ends. Failed fetches leave the cache untouched.
func (s *YieldServiceImpl) fetch(ctx context.Context, traceID string, year int) ([]models.YieldCurve, error) {
	ch := s.flight.DoChan(strconv.Itoa(year), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RevalidateTimeout)
		defer cancel()
		curves, err := s.source.FetchYear(fctx, year)
		if err != nil {
			return nil, err
		}
		doc := models.YearCurves{Year: year, Curves: curves, FetchedAt: s.clock.Now()}
		s.cache.Put(fctx, doc)
		s.logger.Info("yield_year_cached", zap.String(pkg.TraceId, traceID), zap.Int("year", year), zap.Int("curves", len(curves)))
		return doc.Curves, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.logger.Warn("yield_fetch_failed", zap.String(pkg.TraceId, traceID), zap.Int("year", year), zap.Error(res.Err))
			return nil, res.Err
		}
		return res.Val.([]models.YieldCurve), nil
	}
}

func (s *YieldServiceImpl) revalidate(traceID string, year int) {
	if _, busy := s.revalidating.LoadOrStore(year, struct{}{}); busy {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer s.revalidating.Delete(year)

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RevalidateTimeout)
		defer cancel()
		if _, err := s.fetch(ctx, traceID, year); err != nil {
			observability.YieldRevalidations.WithLabelValues("failed").Inc()
			return
		}
		observability.YieldRevalidations.WithLabelValues("ok").Inc()
	}()
}

func (s *YieldServiceImpl) rangeYears(q RangeQuery, start, end time.Time) []int {
	seen := make(map[int]bool)
	years := make([]int, 0)
	add := func(y int) {
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}

	switch {
	case len(q.Years) > 0:
		for _, y := range q.Years {
			add(y)
		}
	case q.StartDate != nil || q.EndDate != nil:
		from, to := s.clock.Now().Year(), s.clock.Now().Year()
		if q.StartDate != nil {
			from = start.Year()
		}
		if q.EndDate != nil {
			to = end.Year()
			if q.StartDate == nil {
				from = to
			}
		}
		for y := from; y <= to && len(years) <= MaxRangeYears; y++ {
			add(y)
		}
	default:
		add(s.clock.Now().Year())
	}
	sort.Ints(years)
	return years
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
