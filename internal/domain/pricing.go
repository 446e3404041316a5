package domain

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFixedStay Category = "villa"
	CategoryPerPerson Category = "camping"
)

// ParseCategory maps a property category onto a pricing model. Anything that
// is not a villa is priced per person.
func ParseCategory(s string) Category {
	if strings.EqualFold(strings.TrimSpace(s), string(CategoryFixedStay)) {
		return CategoryFixedStay
	}
	return CategoryPerPerson
}

func (c Category) FixedStay() bool {
	return c == CategoryFixedStay
}

var AdvanceRate = decimal.NewFromFloat(0.30)

type Party struct {
	Persons       int `json:"persons"`
	VegPersons    int `json:"veg_persons"`
	NonVegPersons int `json:"non_veg_persons"`
}

func (p Party) Size(c Category) int {
	if c.FixedStay() {
		return p.Persons
	}
	return p.VegPersons + p.NonVegPersons
}

type Quote struct {
	Category Category        `json:"category"`
	Nights   int             `json:"nights"`
	Units    int             `json:"units"`
	Rate     decimal.Decimal `json:"rate"`
	Total    decimal.Decimal `json:"total"`
	Advance  decimal.Decimal `json:"advance"`
	Due      decimal.Decimal `json:"due"`
}

// StayNights counts started days between the two dates, never less than one.
func StayNights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 1
	}
	d := checkOut.Sub(checkIn)
	if d < 0 {
		d = -d
	}
	n := int(math.Ceil(float64(d) / float64(24*time.Hour)))
	if n < 1 {
		return 1
	}
	return n
}

// Price is fixed-stay: rate per night; per-person: rate per guest.
func Price(c Category, rate decimal.Decimal, party Party, nights int) Quote {
	units := party.Size(c)
	if c.FixedStay() {
		units = nights
	}
	if units < 0 {
		units = 0
	}
	total := rate.Mul(decimal.NewFromInt(int64(units)))
	advance := total.Mul(AdvanceRate).Round(0)
	return Quote{
		Category: c,
		Nights:   nights,
		Units:    units,
		Rate:     rate,
		Total:    total,
		Advance:  advance,
		Due:      total.Sub(advance),
	}
}

// FormatINR renders an amount the way tickets and messages show it, e.g. ₹900.
func FormatINR(d decimal.Decimal) string {
	return "₹" + d.String()
}
