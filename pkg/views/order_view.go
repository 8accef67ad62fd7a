package views

import (
	"bytes"
	"encoding/json"
	"time"
)

// OrderRequest is the untrusted body of POST /api/orders. Numbers are kept as
// json.Number so the validator can tell 1500 from 1500.5 and report both problems.
// Decoding never fails on a wrongly typed field; the raw value is carried through
// and rejected by validation alongside every other broken rule.
type OrderRequest struct {
	Side         string      `json:"side"`
	Tenor        string      `json:"tenor"`
	IssuanceType string      `json:"issuance_type"`
	Quantity     json.Number `json:"quantity"`
	Yield        json.Number `json:"yield"`
	Notes        *string     `json:"notes,omitempty"`
}

func (r *OrderRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Side         json.RawMessage `json:"side"`
		Tenor        json.RawMessage `json:"tenor"`
		IssuanceType json.RawMessage `json:"issuance_type"`
		Quantity     json.RawMessage `json:"quantity"`
		Yield        json.RawMessage `json:"yield"`
		Notes        json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = OrderRequest{
		Side:         rawText(raw.Side),
		Tenor:        rawText(raw.Tenor),
		IssuanceType: rawText(raw.IssuanceType),
		Quantity:     json.Number(rawText(raw.Quantity)),
		Yield:        json.Number(rawText(raw.Yield)),
	}
	if len(raw.Notes) > 0 && !isNull(raw.Notes) {
		notes := rawText(raw.Notes)
		r.Notes = &notes
	}
	return nil
}

// rawText unquotes JSON strings and returns any other literal verbatim.
func rawText(m json.RawMessage) string {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || isNull(m) {
		return ""
	}
	if m[0] == '"' {
		var s string
		if err := json.Unmarshal(m, &s); err == nil {
			return s
		}
	}
	return string(m)
}

func isNull(m json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(m), []byte("null"))
}

type OrderView struct {
	ID           int64     `json:"id"`
	Side         string    `json:"side"`
	Tenor        string    `json:"tenor"`
	IssuanceType string    `json:"issuance_type"`
	Quantity     int64     `json:"quantity"`
	Yield        float64   `json:"yield"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

type OrdersResponse struct {
	Orders []OrderView `json:"orders"`
	Count  int         `json:"count"`
}

// OrderEvent is published to Kafka and pushed to blotter stream subscribers.
type OrderEvent struct {
	Type    string    `json:"type"`
	TraceID string    `json:"trace_id,omitempty"`
	Order   OrderView `json:"order"`
}
