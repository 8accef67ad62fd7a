package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/clock"
	"github.com/nimeshabuddhika/treasury-desk/services/order-api/internal/services"
	"go.uber.org/zap"
)

const fallbackPrevious = "previous"

type YieldHandler struct {
	logger  *zap.Logger
	service services.YieldService
	clock   clock.Clock
}

func NewYieldHandler(logger *zap.Logger, svc services.YieldService, clk clock.Clock) *YieldHandler {
	return &YieldHandler{logger: logger, service: svc, clock: clk}
}

func (h *YieldHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/yields/treasury", h.GetCurves)
	r.GET("/yields/treasury/tenor", h.GetTenorYield)
}

// GetCurves godoc
// @Summary      Treasury par yield curves
// @Description  Single-date mode with date=YYYY-MM-DD (optionally fallback=previous), or range mode
// @Description  with any of years, year, start_date, end_date. Yields are integer basis points.
// @Tags         yields
// @Produce      json
// @Param        date        query     string  false  "Curve date (YYYY-MM-DD)"
// @Param        fallback    query     string  false  "previous: roll back to the latest earlier curve"
// @Param        years       query     string  false  "Comma separated years"
// @Param        year        query     int     false  "Single year"
// @Param        start_date  query     string  false  "Inclusive range start (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "Inclusive range end (YYYY-MM-DD)"
// @Success      200  {object}  views.CurveView
// @Success      200  {object}  views.CurveRangeView
// @Failure      400  {object}  pkg.ErrorResponse
// @Failure      404  {object}  views.NotFoundView
// @Failure      503  {object}  pkg.ErrorResponse
// @Router       /yields/treasury [get]
func (h *YieldHandler) GetCurves(c *gin.Context) {
	traceID, ok := traceID(c, h.logger)
	if !ok {
		return
	}
	if isRangeQuery(c) {
		h.getRange(c, traceID)
		return
	}

	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		writeError(c, h.logger, traceID, pkg.NewAppError(pkg.ErrInvalidInputCode, "Missing required query param 'date' (YYYY-MM-DD)", nil))
		return
	}
	date, err := parseDate(raw, "date")
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	fallback, err := parseFallback(c.Query("fallback"))
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}

	curve, err := h.service.CurveForDate(c.Request.Context(), traceID, date, fallback)
	if err != nil {
		h.writeLookupError(c, traceID, raw, err)
		return
	}
	c.JSON(http.StatusOK, curve.ToView())
}

// GetTenorYield godoc
// @Summary      Default yield for a tenor
// @Description  Yield of one tenor on the latest curve on or before date (today when omitted).
// @Tags         yields
// @Produce      json
// @Param        tenor  query     string  true   "Tenor code such as 10Y or 1.5M"
// @Param        date   query     string  false  "As-of date (YYYY-MM-DD)"
// @Success      200    {object}  views.TenorYieldView
// @Failure      400    {object}  pkg.ErrorResponse
// @Failure      404    {object}  views.NotFoundView
// @Router       /yields/treasury/tenor [get]
func (h *YieldHandler) GetTenorYield(c *gin.Context) {
	traceID, ok := traceID(c, h.logger)
	if !ok {
		return
	}
	tenor := strings.TrimSpace(c.Query("tenor"))
	if tenor == "" {
		writeError(c, h.logger, traceID, pkg.NewAppError(pkg.ErrInvalidInputCode, "Missing required query param 'tenor'", nil))
		return
	}

	raw := strings.TrimSpace(c.Query("date"))
	date := h.clock.Now().UTC()
	if raw != "" {
		d, err := parseDate(raw, "date")
		if err != nil {
			writeError(c, h.logger, traceID, err)
			return
		}
		date = d
	} else {
		raw = date.Format(pkg.DateLayout)
	}

	view, err := h.service.YieldForTenor(c.Request.Context(), traceID, tenor, date)
	if err != nil {
		h.writeLookupError(c, traceID, raw, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *YieldHandler) getRange(c *gin.Context, traceID string) {
	q, dateRange, err := parseRangeQuery(c)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}

	res, err := h.service.CurvesForRange(c.Request.Context(), traceID, q)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}

	years := make([]string, 0, len(res.Years))
	for _, y := range res.Years {
		years = append(years, strconv.Itoa(y))
	}
	data := make([]views.CurveView, 0, len(res.Curves))
	for _, curve := range res.Curves {
		data = append(data, curve.ToView())
	}
	c.JSON(http.StatusOK, views.CurveRangeView{
		Source:    pkg.YieldSource,
		Years:     years,
		Data:      data,
		Count:     len(data),
		DateRange: dateRange,
	})
}

// writeLookupError renders not-found lookups with the requested date echoed back.
func (h *YieldHandler) writeLookupError(c *gin.Context, traceID, requested string, err error) {
	var appErr pkg.AppError
	if errors.As(err, &appErr) && appErr.Code.Code == pkg.ErrRecordNotFoundCode.Code {
		h.logger.Debug("yield_not_found", zap.String(pkg.TraceId, traceID), zap.String("requested_date", requested))
		c.JSON(http.StatusNotFound, views.NotFoundView{
			Error:         appErr.Message,
			Code:          appErr.Code.Code,
			RequestedDate: requested,
		})
		return
	}
	writeError(c, h.logger, traceID, err)
}

func isRangeQuery(c *gin.Context) bool {
	for _, key := range []string{"years", "year", "start_date", "end_date"} {
		if _, ok := c.GetQuery(key); ok {
			return true
		}
	}
	return false
}

func parseRangeQuery(c *gin.Context) (services.RangeQuery, views.DateRange, error) {
	var q services.RangeQuery
	var dr views.DateRange

	if raw := strings.TrimSpace(c.Query("years")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			y, err := parseYear(part, "years")
			if err != nil {
				return q, dr, err
			}
			q.Years = append(q.Years, y)
		}
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		y, err := parseYear(raw, "year")
		if err != nil {
			return q, dr, err
		}
		q.Years = append(q.Years, y)
	}
	if raw := strings.TrimSpace(c.Query("start_date")); raw != "" {
		d, err := parseDate(raw, "start_date")
		if err != nil {
			return q, dr, err
		}
		q.StartDate = &d
		dr.StartDate = &raw
	}
	if raw := strings.TrimSpace(c.Query("end_date")); raw != "" {
		d, err := parseDate(raw, "end_date")
		if err != nil {
			return q, dr, err
		}
		q.EndDate = &d
		dr.EndDate = &raw
	}
	return q, dr, nil
}

func parseDate(raw, param string) (time.Time, error) {
	d, err := time.Parse(pkg.DateLayout, raw)
	if err != nil {
		return time.Time{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "Invalid '"+param+"' format. Use YYYY-MM-DD", err)
	}
	return d, nil
}

func parseYear(raw, param string) (int, error) {
	y, err := strconv.Atoi(raw)
	if err != nil || y < 1990 || y > 9999 {
		return 0, pkg.NewAppError(pkg.ErrInvalidInputCode, "Invalid '"+param+"' value "+strconv.Quote(raw)+". Use four-digit years", err)
	}
	return y, nil
}

func parseFallback(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return false, nil
	case fallbackPrevious:
		return true, nil
	default:
		return false, pkg.NewAppError(pkg.ErrInvalidInputCode, "fallback must be 'previous' when set", nil)
	}
}
