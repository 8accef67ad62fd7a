package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	base, max := time.Second, 30*time.Second

	assert.Equal(t, time.Duration(0), ExponentialBackoff(0, base, max))
	assert.Equal(t, time.Second, ExponentialBackoff(1, base, max))
	assert.Equal(t, 2*time.Second, ExponentialBackoff(2, base, max))
	assert.Equal(t, 16*time.Second, ExponentialBackoff(5, base, max))
	assert.Equal(t, max, ExponentialBackoff(6, base, max))
	assert.Equal(t, max, ExponentialBackoff(100, base, max))
}

func TestCalculateExponentialBackoffWithJitter_StaysInBand(t *testing.T) {
	base, max := time.Second, 30*time.Second
	for attempt := 1; attempt <= 8; attempt++ {
		want := ExponentialBackoff(attempt, base, max)
		for i := 0; i < 50; i++ {
			got := CalculateExponentialBackoffWithJitter(attempt, base, max)
			assert.GreaterOrEqual(t, got, want-want/8)
			assert.LessOrEqual(t, got, max)
			assert.LessOrEqual(t, got, want+want/8)
		}
	}
}

func TestGetTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetTraceID(c)
	assert.Error(t, err)

	c.Set(pkg.TraceId, "abc")
	id, err := GetTraceID(c)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewHTTPClient_SetsUserAgent(t *testing.T) {
	var seen []string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = append(seen, r.Header.Get("User-Agent"))
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Request: r}, nil
	})

	client := NewHTTPClient(WithTransport(rt), WithUserAgent("deskctl/test"))
	resp, err := client.Get("http://example.invalid/")
	require.NoError(t, err)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"deskctl/test", "custom"}, seen)

	resp, err = NewHTTPClient(WithTransport(rt)).Get("http://example.invalid/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "treasury-desk/1.0", seen[2])
}
