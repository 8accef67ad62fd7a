package models

import (
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
)

// YieldCurve is one trading day's par yields keyed by upstream maturity label ("1 Mo", "10 Yr").
// Values are basis points. Map order carries no meaning.
type YieldCurve struct {
	Date   time.Time      `json:"date"`
	Points map[string]int `json:"points"`
}

func (c YieldCurve) ToView() views.CurveView {
	points := make(map[string]int, len(c.Points))
	for k, v := range c.Points {
		points[k] = v
	}
	return views.CurveView{
		Date:   c.Date.Format(pkg.DateLayout),
		Yields: points,
	}
}

// YearCurves is the upstream unit of retrieval: every published curve of one calendar year,
// ascending by date.
type YearCurves struct {
	Year      int          `json:"year"`
	Curves    []YieldCurve `json:"curves"`
	FetchedAt time.Time    `json:"fetched_at"`
}
