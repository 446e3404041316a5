package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/looncamp/booking/internal/checkout"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/notify"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/outbox"
	"github.com/looncamp/booking/internal/payment"
	"github.com/looncamp/booking/internal/receipt"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type TicketService interface {
	Create(ctx context.Context, in domain.NewETicket) (*domain.ETicket, error)
	Get(ctx context.Context, ticketID string) (*domain.ETicket, error)
}

type CheckoutRunner interface {
	Run(ctx context.Context, o checkout.Order) (*checkout.Receipt, error)
}

type PaymentSettler interface {
	Settle(ctx context.Context, orderID, transactionID string, succeeded bool) (*payment.Record, error)
}

type OutboxReader interface {
	ListOutbox(ctx context.Context, aggregateType, aggregateID string) ([]outbox.Record, error)
}

type ReceiptRenderer interface {
	PDF(t domain.ETicket, ticketURL string) ([]byte, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the API. Settler is nil unless the
// callback payment gateway is in use.
type Deps struct {
	Tickets   TicketService
	Flow      CheckoutRunner
	Settler   PaymentSettler
	Outbox    OutboxReader
	Receipts  ReceiptRenderer
	TicketURL func(ticketID string) string
	Ready     map[string]Pinger
	Logger    observability.Logger
}

type Handlers struct {
	Deps
}

func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = observability.NopLogger()
	}
	return &Handlers{Deps: d}
}

func (h *Handlers) CreateETicket(w http.ResponseWriter, r *http.Request) {
	var req domain.NewETicket
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	t, err := h.Tickets.Create(r.Context(), req)
	switch {
	case err == nil:
		respondData(w, http.StatusCreated, "E-ticket created successfully.", t)
	case domain.IsValidation(err):
		respondError(w, http.StatusBadRequest, "Missing required fields for e-ticket.")
	case domain.IsConflict(err):
		respondError(w, http.StatusConflict, "E-ticket already exists.")
	default:
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("create eticket failed")
		respondError(w, http.StatusInternalServerError, "Failed to create e-ticket.")
	}
}

func (h *Handlers) GetETicket(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTicket(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, "", t)
}

func (h *Handlers) TicketQR(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTicket(w, r)
	if !ok {
		return
	}
	png, err := receipt.QR(h.TicketURL(t.TicketID))
	if err != nil {
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("render qr failed")
		respondError(w, http.StatusInternalServerError, "Failed to render QR code.")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(png)
}

func (h *Handlers) TicketPDF(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTicket(w, r)
	if !ok {
		return
	}
	pdf, err := h.Receipts.PDF(*t, h.TicketURL(t.TicketID))
	if err != nil {
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("render receipt failed")
		respondError(w, http.StatusInternalServerError, "Failed to render receipt.")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+t.TicketID+`.pdf"`)
	w.Write(pdf)
}

func (h *Handlers) TicketNotifications(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTicket(w, r)
	if !ok {
		return
	}
	records, err := h.Outbox.ListOutbox(r.Context(), notify.AggregateType, t.TicketID)
	if err != nil {
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("list notifications failed")
		respondError(w, http.StatusInternalServerError, "Failed to fetch notifications.")
		return
	}
	views, err := notify.Views(records)
	if err != nil {
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("decode notifications failed")
		respondError(w, http.StatusInternalServerError, "Failed to fetch notifications.")
		return
	}
	respondData(w, http.StatusOK, "", views)
}

func (h *Handlers) lookupTicket(w http.ResponseWriter, r *http.Request) (*domain.ETicket, bool) {
	t, err := h.Tickets.Get(r.Context(), chi.URLParam(r, "ticketId"))
	switch {
	case err == nil:
		return t, true
	case domain.IsNotFound(err), domain.IsValidation(err):
		respondError(w, http.StatusNotFound, "E-ticket not found.")
	default:
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("fetch eticket failed")
		respondError(w, http.StatusInternalServerError, "Failed to fetch e-ticket.")
	}
	return nil, false
}

type bookingRequest struct {
	PropertyID    string          `json:"property_id"`
	PropertyName  string          `json:"property_name"`
	Category      string          `json:"category"`
	GuestName     string          `json:"guest_name"`
	Mobile        string          `json:"mobile"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	Persons       int             `json:"persons"`
	VegPersons    int             `json:"veg_persons"`
	NonVegPersons int             `json:"non_veg_persons"`
	Rate          decimal.Decimal `json:"rate"`
	MaxCapacity   *int            `json:"max_capacity"`
	ReferralCode  string          `json:"referral_code"`
	Method        string          `json:"method"`
}

func (b bookingRequest) draft() (domain.BookingDraft, error) {
	d := domain.BookingDraft{
		PropertyID:   strings.TrimSpace(b.PropertyID),
		PropertyName: strings.TrimSpace(b.PropertyName),
		Category:     domain.ParseCategory(b.Category),
		GuestName:    b.GuestName,
		Mobile:       b.Mobile,
		Party:        domain.Party{Persons: b.Persons, VegPersons: b.VegPersons, NonVegPersons: b.NonVegPersons},
		Rate:         b.Rate,
		MaxCapacity:  domain.DefaultMaxCapacity,
		ReferralCode: strings.TrimSpace(b.ReferralCode),
	}
	if b.MaxCapacity != nil {
		d.MaxCapacity = *b.MaxCapacity
	}
	if b.CheckIn != "" {
		t, err := time.Parse(dateLayout, b.CheckIn)
		if err != nil {
			return d, domain.NewValidationError("check_in", "must be YYYY-MM-DD")
		}
		d.SetCheckIn(t)
	}
	if b.CheckOut != "" {
		t, err := time.Parse(dateLayout, b.CheckOut)
		if err != nil {
			return d, domain.NewValidationError("check_out", "must be YYYY-MM-DD")
		}
		d.SetCheckOut(t)
	}
	return d, nil
}

func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	d, err := req.draft()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondData(w, http.StatusOK, "", d.Quote())
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	d, err := req.draft()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.Flow.Run(r.Context(), checkout.Order{Draft: d, Method: req.Method})
	var verr *domain.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, payment.ErrDeclined):
		respondError(w, http.StatusPaymentRequired, "Payment was declined.")
		return
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "Payment timed out.")
		return
	default:
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("checkout failed")
		respondError(w, http.StatusInternalServerError, "Checkout failed.")
		return
	}

	msg := "Payment successful."
	if rec.Warning != "" {
		msg = rec.Warning
	}
	respondData(w, http.StatusCreated, msg, rec)
}

func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	if h.Settler == nil {
		respondError(w, http.StatusNotFound, "Payment callbacks are not enabled.")
		return
	}
	var req struct {
		OrderID       string `json:"order_id"`
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	succeeded := strings.EqualFold(req.Status, string(payment.StatusSuccess))
	rec, err := h.Settler.Settle(r.Context(), req.OrderID, req.TransactionID, succeeded)
	if domain.IsNotFound(err) {
		respondError(w, http.StatusNotFound, "Payment not found.")
		return
	}
	if err != nil {
		loggerFrom(r, h.Logger).WithField("error", err.Error()).Error("payment callback failed")
		respondError(w, http.StatusInternalServerError, "Failed to record payment.")
		return
	}
	respondData(w, http.StatusOK, "", rec)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, "OK", nil)
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for name, p := range h.Ready {
		if err := p.Ping(ctx); err != nil {
			loggerFrom(r, h.Logger).WithField("dependency", name).WithField("error", err.Error()).Warn("not ready")
			respondError(w, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}
	respondData(w, http.StatusOK, "Ready", nil)
}
