package domain

import (
	"fmt"
	"strings"
	"time"
)

const FallbackPropertyName = "Property"

type ETicket struct {
	TicketID     string    `json:"ticket_id"`
	PropertyID   string    `json:"property_id"`
	GuestName    string    `json:"guest_name"`
	CheckInDate  string    `json:"check_in_date"`
	CheckOutDate string    `json:"check_out_date"`
	PaidAmount   string    `json:"paid_amount"`
	DueAmount    string    `json:"due_amount"`
	CreatedAt    time.Time `json:"created_at"`
	PropertyName string    `json:"property_name,omitempty"`
	MapLink      string    `json:"map_link,omitempty"`
}

// NewETicket is the create request. Paid and due amounts are optional.
type NewETicket struct {
	TicketID     string `json:"ticket_id"`
	PropertyID   string `json:"property_id"`
	GuestName    string `json:"guest_name"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	PaidAmount   string `json:"paid_amount"`
	DueAmount    string `json:"due_amount"`
}

func (n NewETicket) Validate() error {
	required := []struct{ field, value string }{
		{"ticket_id", n.TicketID},
		{"property_id", n.PropertyID},
		{"guest_name", n.GuestName},
		{"check_in_date", n.CheckInDate},
		{"check_out_date", n.CheckOutDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return NewValidationError(r.field, "is required")
		}
	}
	return nil
}

func (n NewETicket) Ticket(createdAt time.Time) ETicket {
	return ETicket{
		TicketID:     strings.TrimSpace(n.TicketID),
		PropertyID:   strings.TrimSpace(n.PropertyID),
		GuestName:    strings.TrimSpace(n.GuestName),
		CheckInDate:  n.CheckInDate,
		CheckOutDate: n.CheckOutDate,
		PaidAmount:   n.PaidAmount,
		DueAmount:    n.DueAmount,
		CreatedAt:    createdAt.UTC(),
	}
}

type Property struct {
	ID      string `json:"id" bson:"_id"`
	Title   string `json:"title" bson:"title"`
	MapLink string `json:"map_link" bson:"map_link"`
}

// TicketIDForOrder derives the human readable ticket id from a payment order id.
func TicketIDForOrder(orderID string) string {
	suffix := orderID
	if i := strings.LastIndex(orderID, "-"); i >= 0 {
		suffix = orderID[i+1:]
	}
	return "LC-" + suffix
}

// DisplayDate formats a stay date as "January 15th, 2026".
func DisplayDate(t time.Time) string {
	day := t.Day()
	return fmt.Sprintf("%s %d%s, %d", t.Month(), day, ordinal(day), t.Year())
}

func ordinal(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
