package treasury

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseYearCSV reads the daily par yield curve CSV for one year.
// Header labels are kept verbatim; percent cells become basis points.
// Blank and N/A cells are omitted from the curve. Curves come back ascending by date.
func ParseYearCSV(r io.Reader) ([]models.YieldCurve, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, readError("header", err)
	}
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")), "Date") {
		return nil, malformed(errors.New("first column is not Date"))
	}
	labels := make([]string, len(header))
	for i, h := range header {
		labels[i] = strings.TrimSpace(h)
	}

	byDate := make(map[time.Time]models.YieldCurve)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, readError(fmt.Sprintf("line %d", line), err)
		}
		if len(record) != len(labels) {
			return nil, malformed(fmt.Errorf("line %d: %d cells, want %d", line, len(record), len(labels)))
		}
		date, err := time.Parse(pkg.UpstreamDateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, malformed(fmt.Errorf("line %d: bad date %q", line, record[0]))
		}
		points := make(map[string]int, len(labels)-1)
		for i := 1; i < len(record); i++ {
			cell := strings.TrimSpace(record[i])
			if cell == "" || strings.EqualFold(cell, "N/A") {
				continue
			}
			pct, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, malformed(fmt.Errorf("line %d: bad yield %q for %s", line, cell, labels[i]))
			}
			points[labels[i]] = int(pct.Mul(hundred).Round(0).IntPart())
		}
		byDate[date] = models.YieldCurve{Date: date, Points: points}
	}

	curves := make([]models.YieldCurve, 0, len(byDate))
	for _, c := range byDate {
		curves = append(curves, c)
	}
	sort.Slice(curves, func(i, j int) bool { return curves[i].Date.Before(curves[j].Date) })
	return curves, nil
}

// readError separates CSV syntax problems (malformed payload) from body read
// failures such as a connection reset, which are worth retrying.
func readError(where string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return malformed(fmt.Errorf("%s: %w", where, err))
	}
	return fmt.Errorf("read %s: %w", where, err)
}

func malformed(err error) error {
	return pkg.NewAppError(pkg.ErrUpstreamMalformedCode, pkg.ErrUpstreamMalformedCode.Message, errors.Join(pkg.ErrUpstreamMalformed, err))
}
