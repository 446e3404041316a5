package notify

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

type Audience string

const (
	AudienceGuest Audience = "guest"
	AudienceOwner Audience = "owner"
	AudienceAdmin Audience = "admin"
)

// Booking is everything the templates need about a confirmed booking.
type Booking struct {
	TicketID      string
	TicketURL     string
	PropertyName  string
	MapLink       string
	GuestName     string
	GuestPhone    string
	CheckInDate   string
	Total         decimal.Decimal
	Advance       decimal.Decimal
	Due           decimal.Decimal
	OrderID       string
	PaymentMethod string
}

type Message struct {
	TicketID string   `json:"ticket_id"`
	Audience Audience `json:"audience"`
	Phone    string   `json:"phone"`
	Text     string   `json:"text"`
	Link     string   `json:"link"`
}

type Branding struct {
	Brand      string
	HostDomain string
	HostPhone  string
	OwnerPhone string
	AdminPhone string
	SendURL    string
	MapLink    string
}

type Composer struct {
	brand Branding
}

func NewComposer(b Branding) *Composer {
	if b.SendURL == "" {
		b.SendURL = "https://api.whatsapp.com/send"
	}
	return &Composer{brand: b}
}

// Compose returns the guest, owner and admin messages in that order.
func (c *Composer) Compose(b Booking) []Message {
	mapLink := b.MapLink
	if mapLink == "" {
		mapLink = c.brand.MapLink
	}
	header := fmt.Sprintf("*🏡 %s E-TICKET*\n📍 *Property:* %s\n🔖 *Booking ID:* %s\n\n",
		c.brand.Brand, b.PropertyName, b.TicketID)
	footer := fmt.Sprintf("\n🔗 *Ticket Link:* %s\n📍 *Location:* %s\nHost: %s | +%s",
		b.TicketURL, mapLink, c.brand.HostDomain, c.brand.HostPhone)

	guest := header +
		fmt.Sprintf("👤 *Guest:* %s\n📅 *Check-in:* %s\n💰 *Paid:* ₹%s\n🔴 *DUE:* ₹%s",
			b.GuestName, b.CheckInDate, b.Advance, b.Due) +
		footer

	owner := "*NEW BOOKING ALERT (OWNER)*\n" + header +
		fmt.Sprintf("👤 *Guest:* %s\n📅 *Check-in:* %s\n💰 *Adv Received:* ₹%s\n🚩 *Action:* Prepare property for guest Arrival.\n🔗 *Ticket Link:* %s",
			b.GuestName, b.CheckInDate, b.Advance, b.TicketURL)

	admin := "*BOOKING CONFIRMATION (ADMIN)*\n" + header +
		fmt.Sprintf("👤 *Guest:* %s\n💰 *Total:* ₹%s\n✅ *Payment:* SUCCESS (%s)\n🆔 *Order ID:* %s\n🔗 *Ticket Link:* %s",
			b.GuestName, b.Total, b.PaymentMethod, b.OrderID, b.TicketURL)

	guestPhone := NormalizePhone(b.GuestPhone)
	if guestPhone == "" {
		guestPhone = c.brand.HostPhone
	}

	return []Message{
		c.message(b.TicketID, AudienceGuest, guestPhone, guest),
		c.message(b.TicketID, AudienceOwner, c.brand.OwnerPhone, owner),
		c.message(b.TicketID, AudienceAdmin, c.brand.AdminPhone, admin),
	}
}

func (c *Composer) message(ticketID string, audience Audience, phone, text string) Message {
	return Message{
		TicketID: ticketID,
		Audience: audience,
		Phone:    phone,
		Text:     text,
		Link:     DeepLink(c.brand.SendURL, phone, text),
	}
}

// DeepLink builds base?phone=..&text=.. with the text percent-encoded the
// way browsers encode URI components.
func DeepLink(base, phone, text string) string {
	return base + "?phone=" + url.QueryEscape(phone) + "&text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// NormalizePhone keeps digits only and prefixes bare ten digit numbers with
// the Indian country code. It returns "" when nothing usable remains.
func NormalizePhone(s string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, s)
	digits = strings.TrimLeft(digits, "0")
	switch {
	case len(digits) == 10:
		return "91" + digits
	case len(digits) >= 11 && len(digits) <= 15:
		return digits
	}
	return ""
}
