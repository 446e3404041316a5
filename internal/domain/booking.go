package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxFixedStayNights = 7
	DefaultMaxCapacity = 4
)

type BookingDraft struct {
	PropertyID   string          `json:"property_id"`
	PropertyName string          `json:"property_name,omitempty"`
	Category     Category        `json:"category"`
	GuestName    string          `json:"guest_name"`
	Mobile       string          `json:"mobile"`
	CheckIn      time.Time       `json:"check_in"`
	CheckOut     time.Time       `json:"check_out"`
	Party        Party           `json:"party"`
	Rate         decimal.Decimal `json:"rate"`
	MaxCapacity  int             `json:"max_capacity,omitempty"`
	ReferralCode string          `json:"referral_code,omitempty"`
}

// SetCheckIn moves the check-in date and keeps checkout consistent with it.
func (d *BookingDraft) SetCheckIn(t time.Time) {
	d.CheckIn = dateOnly(t)
	next := d.CheckIn.AddDate(0, 0, 1)
	if d.Category.FixedStay() && d.CheckOut.After(d.CheckIn) {
		return
	}
	d.CheckOut = next
}

func (d *BookingDraft) SetCheckOut(t time.Time) {
	d.CheckOut = dateOnly(t)
}

func (d BookingDraft) Nights() int {
	return StayNights(d.CheckIn, d.CheckOut)
}

func (d BookingDraft) Quote() Quote {
	return Price(d.Category, d.Rate, d.Party, d.Nights())
}

// Validate is the confirmation gate run before any payment is attempted.
func (d BookingDraft) Validate() error {
	switch {
	case strings.TrimSpace(d.GuestName) == "":
		return NewValidationError("guest_name", "is required")
	case strings.TrimSpace(d.Mobile) == "":
		return NewValidationError("mobile", "is required")
	case d.CheckIn.IsZero():
		return NewValidationError("check_in", "is required")
	case d.CheckOut.IsZero():
		return NewValidationError("check_out", "is required")
	}
	if d.Party.Persons < 0 || d.Party.VegPersons < 0 || d.Party.NonVegPersons < 0 {
		return NewValidationError("party", "counts must not be negative")
	}
	size := d.Party.Size(d.Category)
	if size == 0 {
		return NewValidationError("party", "at least one guest is required")
	}
	if d.MaxCapacity > 0 && size > d.MaxCapacity {
		return NewValidationError("party", "exceeds property capacity")
	}
	if d.Category.FixedStay() {
		if d.CheckOut.Before(d.CheckIn) {
			return NewValidationError("check_out", "must not be before check-in")
		}
		if d.CheckOut.Sub(d.CheckIn) > MaxFixedStayNights*24*time.Hour {
			return NewValidationError("check_out", "stay is limited to 7 nights")
		}
	} else if !d.CheckOut.After(d.CheckIn) {
		return NewValidationError("check_out", "must be after check-in")
	}
	if d.Rate.IsNegative() {
		return NewValidationError("rate", "must not be negative")
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}
