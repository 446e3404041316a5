package receipt

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/domain"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const (
	CheckInTime  = "11:00 AM"
	CheckOutTime = "10:00 AM"

	qrSize = 256
)

// QR encodes the public ticket link as a PNG.
func QR(ticketURL string) ([]byte, error) {
	png, err := qrcode.Encode(ticketURL, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(err, "encode ticket qr")
	}
	return png, nil
}

type Renderer struct {
	brand      string
	hostDomain string
	hostPhone  string
	mapLink    string
}

func NewRenderer(brand, hostDomain, hostPhone, defaultMapLink string) *Renderer {
	return &Renderer{brand: brand, hostDomain: hostDomain, hostPhone: hostPhone, mapLink: defaultMapLink}
}

// PDF renders the printable e-ticket for a joined ticket.
func (r *Renderer) PDF(t domain.ETicket, ticketURL string) ([]byte, error) {
	png, err := QR(ticketURL)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.brand+" E-Ticket "+t.TicketID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, r.brand+" E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr(t.PropertyName))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	lines := [][2]string{
		{"Booking ID", t.TicketID},
		{"Guest", t.GuestName},
		{"Check-in", t.CheckInDate + ", " + CheckInTime},
		{"Check-out", t.CheckOutDate + ", " + CheckOutTime},
		{"Paid", rupees(t.PaidAmount)},
		{"Due at property", rupees(t.DueAmount)},
	}
	for _, l := range lines {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(45, 7, l[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 7, tr(l[1]), "", 1, "L", false, 0, "")
	}

	mapLink := t.MapLink
	if mapLink == "" {
		mapLink = r.mapLink
	}
	if mapLink != "" {
		pdf.Ln(3)
		pdf.SetTextColor(0, 0, 200)
		pdf.CellFormat(0, 7, "Open location in maps", "", 1, "L", false, 0, mapLink)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.Ln(4)
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("qr", 10, pdf.GetY(), 50, 50, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, ticketURL)
	pdf.SetY(pdf.GetY() + 54)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Show this ticket at the property on arrival. The due amount is payable at check-in.", "", "", false)
	pdf.Cell(0, 6, "Host: "+r.hostDomain+" | +"+r.hostPhone)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrapf(err, "render receipt %s", t.TicketID)
	}
	return buf.Bytes(), nil
}

// The core fonts have no rupee glyph.
func rupees(amount string) string {
	if amount == "" {
		return "-"
	}
	return strings.Replace(amount, "₹", "Rs. ", 1)
}
