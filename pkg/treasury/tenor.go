package treasury

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
)

var tenorCode = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)([MY])$`)

// FormatTenor turns a compact code into the upstream label: "1M" -> "1 Mo",
// "1.5M" -> "1.5 Month", "2Y" -> "2 Yr". The Mo/Month split mirrors the treasury
// column vocabulary. Codes that do not look like a tenor are returned unchanged.
func FormatTenor(code string) string {
	m := tenorCode.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return code
	}
	num, unit := m[1], strings.ToUpper(m[2])
	if unit == "M" {
		if strings.Contains(num, ".") {
			return num + " Month"
		}
		return num + " Mo"
	}
	return num + " Yr"
}

// LabelForTenor is FormatTenor restricted to the tradable tenor set.
func LabelForTenor(t models.Tenor) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("unknown tenor %q", t)
	}
	return FormatTenor(string(t)), nil
}

// MaturityMonths parses a label such as "1 Mo", "1.5 Month" or "10 Yr" into months.
func MaturityMonths(label string) (float64, bool) {
	fields := strings.Fields(label)
	if len(fields) != 2 {
		return 0, false
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	unit := strings.ToLower(fields[1])
	switch {
	case strings.HasPrefix(unit, "mo"):
		return n, true
	case strings.HasPrefix(unit, "yr"):
		return n * 12, true
	default:
		return 0, false
	}
}

// SortedLabels orders curve labels by maturity. Labels that cannot be parsed are dropped.
func SortedLabels(points map[string]int) []string {
	type entry struct {
		label  string
		months float64
	}
	entries := make([]entry, 0, len(points))
	for label := range points {
		if m, ok := MaturityMonths(label); ok {
			entries = append(entries, entry{label: label, months: m})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].months == entries[j].months {
			return entries[i].label < entries[j].label
		}
		return entries[i].months < entries[j].months
	})
	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.label
	}
	return labels
}
