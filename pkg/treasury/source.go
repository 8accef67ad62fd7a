package treasury

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/pkg/utils"
	"go.uber.org/zap"
)

// DefaultURLTemplate is the treasury.gov daily par yield curve CSV export. {year} is substituted per fetch.
const DefaultURLTemplate = "https://home.treasury.gov/resource-center/data-chart-center/interest-rates/daily-treasury-rates.csv/{year}/all?type=daily_treasury_yield_curve&field_tdr_date_value={year}&page&_format=csv"

const maxBodyBytes = 8 << 20

// Source retrieves every published curve for one calendar year.
type Source interface {
	FetchYear(ctx context.Context, year int) ([]models.YieldCurve, error)
}

// SourceConfig configures HTTPSource. Zero values fall back to defaults.
type SourceConfig struct {
	URLTemplate string
	Timeout     time.Duration // per attempt
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Client      *http.Client
}

// HTTPSource fetches the treasury CSV over HTTP with bounded, retried attempts.
type HTTPSource struct {
	logger *zap.Logger
	cfg    SourceConfig
	client *http.Client
}

func NewHTTPSource(logger *zap.Logger, cfg SourceConfig) *HTTPSource {
	if utils.IsEmpty(cfg.URLTemplate) {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = utils.NewHTTPClient(utils.WithClientTimeout(cfg.Timeout))
	}
	return &HTTPSource{logger: logger, cfg: cfg, client: client}
}

// FetchYear returns the year's curves ascending by date. A year the source has not
// published yet (404) is an empty result. Transport failures, timeouts and 5xx
// responses are retried and finally reported as UPSTREAM_UNAVAILABLE; unreadable
// payloads are reported as UPSTREAM_MALFORMED without retry.
func (s *HTTPSource) FetchYear(ctx context.Context, year int) ([]models.YieldCurve, error) {
	url := strings.ReplaceAll(s.cfg.URLTemplate, "{year}", strconv.Itoa(year))
	attempt := 0
	var curves []models.YieldCurve

	operation := func() error {
		attempt++
		start := time.Now()
		out, err := s.fetchOnce(ctx, url)
		upstreamFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			upstreamFetches.WithLabelValues(outcome(err)).Inc()
			s.logger.Warn("upstream_fetch_failed",
				zap.Int("year", year),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		upstreamFetches.WithLabelValues("ok").Inc()
		curves = out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.BaseBackoff
	b.MaxInterval = s.cfg.MaxBackoff
	b.MaxElapsedTime = 0 // bounded by attempts instead
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.MaxAttempts-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		if pkg.HasCode(err, pkg.ErrUpstreamMalformedCode) {
			return nil, err
		}
		return nil, pkg.NewAppError(pkg.ErrUpstreamUnavailableCode, pkg.ErrUpstreamUnavailableCode.Message,
			errors.Join(pkg.ErrUpstreamUnavailable, fmt.Errorf("year %d after %d attempts: %w", year, attempt, err)))
	}
	s.logger.Debug("upstream_fetch_completed", zap.Int("year", year), zap.Int("curves", len(curves)), zap.Int("attempts", attempt))
	return curves, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, url string) ([]models.YieldCurve, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	curves, err := ParseYearCSV(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if pkg.HasCode(err, pkg.ErrUpstreamMalformedCode) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return curves, nil
}

func outcome(err error) string {
	if pkg.HasCode(err, pkg.ErrUpstreamMalformedCode) {
		return "malformed"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "unavailable"
}
