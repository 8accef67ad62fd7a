package models

import (
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

type IssuanceType string

const (
	IssuanceWhenIssued IssuanceType = "WI"
	IssuanceOnTheRun   IssuanceType = "OTR"
	IssuanceOffTheRun  IssuanceType = "OFTR"
)

// Tenor is a compact maturity code such as "1.5M" or "10Y".
type Tenor string

// Tenors is the closed set of tradable maturities, shortest first.
var Tenors = []Tenor{"1M", "1.5M", "2M", "3M", "4M", "6M", "1Y", "2Y", "3Y", "5Y", "7Y", "10Y", "20Y", "30Y"}

var Sides = []Side{SideBuy, SideSell}

var IssuanceTypes = []IssuanceType{IssuanceWhenIssued, IssuanceOnTheRun, IssuanceOffTheRun}

func (t Tenor) Valid() bool {
	for _, v := range Tenors {
		if v == t {
			return true
		}
	}
	return false
}

// QuantityLot is the trade size increment; quantities must be whole multiples of it.
const QuantityLot int64 = 1000

// NotesMaxLength is measured in characters, not bytes.
const NotesMaxLength = 1000

// OrderDraft is a validated order that has not been stored yet.
type OrderDraft struct {
	Side         Side
	Tenor        Tenor
	IssuanceType IssuanceType
	Quantity     int64
	Yield        decimal.Decimal // percent, e.g. 4.25
	Notes        string
}

// Order maps to table `orders`. Rows are append-only.
type Order struct {
	ID           int64
	Side         Side
	Tenor        Tenor
	IssuanceType IssuanceType
	Quantity     int64
	Yield        decimal.Decimal
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o Order) ToView() views.OrderView {
	return views.OrderView{
		ID:           o.ID,
		Side:         string(o.Side),
		Tenor:        string(o.Tenor),
		IssuanceType: string(o.IssuanceType),
		Quantity:     o.Quantity,
		Yield:        o.Yield.InexactFloat64(),
		Notes:        o.Notes,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func (o Order) ToEvent(traceID string) views.OrderEvent {
	return views.OrderEvent{
		Type:    string(pkg.OrderEventCreated),
		TraceID: traceID,
		Order:   o.ToView(),
	}
}
