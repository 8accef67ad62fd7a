package views

// CurveView is the single-date response of GET /api/yields/treasury.
// Yields are integer basis points (565 = 5.65%).
type CurveView struct {
	Date   string         `json:"date"`
	Yields map[string]int `json:"yields"`
}

type DateRange struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// CurveRangeView is the range-mode response of GET /api/yields/treasury.
type CurveRangeView struct {
	Source    string      `json:"source"`
	Years     []string    `json:"years"`
	Data      []CurveView `json:"data"`
	Count     int         `json:"count"`
	DateRange DateRange   `json:"date_range"`
}

// TenorYieldView is the default-yield lookup for one tenor code.
type TenorYieldView struct {
	Date    string  `json:"date"`
	Tenor   string  `json:"tenor"`
	Label   string  `json:"label"`
	YieldBP int     `json:"yield_bp"`
	Yield   float64 `json:"yield"`
}

type NotFoundView struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	RequestedDate string `json:"requested_date,omitempty"`
}
