package treasury

import (
	"strings"
	"testing"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Date,"1 Mo","1.5 Month","2 Mo","3 Mo","4 Mo","6 Mo","1 Yr","2 Yr","3 Yr","5 Yr","7 Yr","10 Yr","20 Yr","30 Yr"
09/26/2025,4.14,4.12,4.09,4.01,3.95,3.83,3.65,3.63,3.64,3.76,3.97,4.18,4.75,4.77
09/25/2025,4.15,4.13,4.10,4.02,3.96,3.84,3.67,3.66,3.67,3.79,3.99,4.17,4.74,4.76
01/02/2025,4.45,,4.36,4.36,4.31,4.25,4.17,4.25,4.29,4.38,4.47,4.57,4.86,4.79
`

func TestParseYearCSV(t *testing.T) {
	curves, err := ParseYearCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, curves, 3)

	// ascending by date regardless of feed order
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), curves[0].Date)
	assert.Equal(t, time.Date(2025, 9, 26, 0, 0, 0, 0, time.UTC), curves[2].Date)

	latest := curves[2].Points
	assert.Equal(t, 414, latest["1 Mo"])
	assert.Equal(t, 412, latest["1.5 Month"])
	assert.Equal(t, 418, latest["10 Yr"])
	assert.Len(t, latest, 14)

	_, ok := curves[0].Points["1.5 Month"]
	assert.False(t, ok, "blank cells are omitted")
}

func TestParseYearCSV_RoundsToWholeBasisPoints(t *testing.T) {
	csv := "Date,1 Mo,2 Yr\n03/03/2025,4.345,4.0049\n"
	curves, err := ParseYearCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, curves, 1)
	assert.Equal(t, 435, curves[0].Points["1 Mo"])
	assert.Equal(t, 400, curves[0].Points["2 Yr"])
}

func TestParseYearCSV_EmptyBody(t *testing.T) {
	curves, err := ParseYearCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, curves)
}

func TestParseYearCSV_Malformed(t *testing.T) {
	inputs := map[string]string{
		"no date column": "Maturity,1 Mo\nx,4.1\n",
		"bad date":       "Date,1 Mo\n2025-01-02,4.1\n",
		"bad yield":      "Date,1 Mo\n01/02/2025,four\n",
		"short row":      "Date,1 Mo,2 Mo\n01/02/2025,4.1\n",
		"bad quoting":    "Date,1 Mo\n01/02/2025,\"4.1\n",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ParseYearCSV(strings.NewReader(in))
			require.Error(t, err)
			assert.True(t, pkg.HasCode(err, pkg.ErrUpstreamMalformedCode), "got %v", err)
			assert.ErrorIs(t, err, pkg.ErrUpstreamMalformed)
		})
	}
}
