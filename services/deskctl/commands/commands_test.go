package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) (*httptest.Server, *views.OrderRequest) {
	t.Helper()
	var submitted views.OrderRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &submitted))
			if submitted.Side != "Buy" && submitted.Side != "Sell" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(pkg.ErrorResponse{
					Code:  pkg.ErrValidationFailedCode.Code,
					Error: "side must be 'Buy' or 'Sell'",
					Fields: []pkg.FieldError{
						{Field: "side", Message: "side must be 'Buy' or 'Sell'"},
						{Field: "quantity", Message: "quantity must be a multiple of 1000"},
					},
				})
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(views.CreateOrderResponse{Message: "Order created successfully", OrderID: 7})
			return
		}
		_ = json.NewEncoder(w).Encode(views.OrdersResponse{Count: 1, Orders: []views.OrderView{{
			ID: 7, Side: "Buy", Tenor: "10Y", IssuanceType: "OTR", Quantity: 5000, Yield: 4.57,
			CreatedAt: time.Date(2025, 1, 3, 14, 0, 0, 0, time.UTC),
		}}})
	})
	mux.HandleFunc("/api/yields/treasury", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("date") != "" {
			_ = json.NewEncoder(w).Encode(views.CurveView{Date: "2025-01-03", Yields: map[string]int{"10 Yr": 460, "1 Mo": 437}})
			return
		}
		_ = json.NewEncoder(w).Encode(views.CurveRangeView{
			Source: pkg.YieldSource, Years: []string{r.URL.Query().Get("years")}, Count: 1,
			Data: []views.CurveView{{Date: "2025-01-02", Yields: map[string]int{"10 Yr": 457}}},
		})
	})
	mux.HandleFunc("/api/yields/treasury/tenor", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views.TenorYieldView{
			Date: "2025-01-03", Tenor: r.URL.Query().Get("tenor"), Label: "10 Yr", YieldBP: 460, Yield: 4.6,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &submitted
}

func run(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs(append([]string{"--base-url", baseURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestOrdersList(t *testing.T) {
	srv, _ := fakeAPI(t)

	out, err := run(t, srv.URL, "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "10Y")
	assert.Contains(t, out, "4.570")

	out, err = run(t, srv.URL, "orders", "list", "-o", "json")
	require.NoError(t, err)
	var resp views.OrdersResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestOrdersSubmit(t *testing.T) {
	srv, submitted := fakeAPI(t)

	out, err := run(t, srv.URL, "orders", "submit", "--side", "Sell", "--tenor", "1.5M",
		"--issuance-type", "WI", "--quantity", "2000", "--yield", "4.35", "--notes", "hedge")
	require.NoError(t, err)
	assert.Equal(t, "Order created successfully (id 7)\n", out)
	assert.Equal(t, "1.5M", submitted.Tenor)
	assert.Equal(t, "2000", submitted.Quantity.String())
	require.NotNil(t, submitted.Notes)
	assert.Equal(t, "hedge", *submitted.Notes)
}

func TestOrdersSubmit_ReportsEveryField(t *testing.T) {
	srv, _ := fakeAPI(t)

	_, err := run(t, srv.URL, "orders", "submit", "--side", "Hold", "--tenor", "10Y",
		"--issuance-type", "OTR", "--quantity", "1500", "--yield", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "side must be 'Buy' or 'Sell'")
	assert.Contains(t, err.Error(), "quantity: quantity must be a multiple of 1000")
}

func TestYieldsCommands(t *testing.T) {
	srv, _ := fakeAPI(t)

	out, err := run(t, srv.URL, "yields", "curve", "2025-01-03")
	require.NoError(t, err)
	assert.Contains(t, out, "1 Mo")
	assert.Contains(t, out, "4.60")

	out, err = run(t, srv.URL, "yields", "range", "--years", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "treasury.gov")
	assert.Contains(t, out, "2025-01-02")

	out, err = run(t, srv.URL, "yields", "tenor", "10Y")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03 10Y (10 Yr): 4.60% (460 bp)\n", out)

	_, err = run(t, srv.URL, "yields", "range")
	assert.Error(t, err)
}

func TestUnknownOutputFormat(t *testing.T) {
	srv, _ := fakeAPI(t)
	_, err := run(t, srv.URL, "orders", "list", "-o", "yaml")
	assert.Error(t, err)
}
