package checkout

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/notify"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/payment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const WarningTicketFailed = "Payment successful but failed to generate ticket link."

type TicketCreator interface {
	Create(ctx context.Context, in domain.NewETicket) (*domain.ETicket, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, b notify.Booking) error
}

type Auditor interface {
	LogPayment(ctx context.Context, rec payment.Record) error
}

type Receipt struct {
	SessionID string          `json:"session_id"`
	State     State           `json:"state"`
	Payment   payment.Record  `json:"payment"`
	Quote     domain.Quote    `json:"quote"`
	Ticket    *domain.ETicket `json:"ticket,omitempty"`
	TicketURL string          `json:"ticket_url,omitempty"`
	Warning   string          `json:"warning,omitempty"`

	// TicketErr is the ticket creation failure behind Warning, marked
	// domain.ErrTransientBackend.
	TicketErr error `json:"-"`
}

// Order is a checkout request: a draft plus the chosen payment method.
type Order struct {
	Draft  domain.BookingDraft
	Method string
}

type Flow struct {
	gateway   payment.Gateway
	tickets   TicketCreator
	notifier  Notifier
	audit     Auditor
	ticketURL func(ticketID string) string
	logger    observability.Logger
}

// NewFlow builds the checkout workflow. notifier and audit may be nil.
func NewFlow(gateway payment.Gateway, tickets TicketCreator, notifier Notifier, audit Auditor,
	ticketURL func(string) string, logger observability.Logger) *Flow {
	return &Flow{
		gateway:   gateway,
		tickets:   tickets,
		notifier:  notifier,
		audit:     audit,
		ticketURL: ticketURL,
		logger:    logger,
	}
}

// Begin runs the confirmation gate and opens a session in OPTIONS.
func (f *Flow) Begin(draft domain.BookingDraft) (*Session, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return newSession(draft), nil
}

// Run gates the draft, selects the method and pays.
func (f *Flow) Run(ctx context.Context, o Order) (*Receipt, error) {
	s, err := f.Begin(o.Draft)
	if err != nil {
		observability.CheckoutsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	m, ok := payment.ParseMethod(o.Method)
	if !ok {
		observability.CheckoutsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.NewValidationError("method", "choose googlepay or phonepe")
	}
	if err := s.SelectMethod(m); err != nil {
		return nil, err
	}
	return f.Pay(ctx, s)
}

// Pay takes the advance for the session and, once it succeeds, issues the
// e-ticket and queues the notifications. A ticket failure does not undo the
// payment: the receipt is returned with a warning instead.
func (f *Flow) Pay(ctx context.Context, s *Session) (*Receipt, error) {
	if s.Method == "" {
		return nil, domain.NewValidationError("method", "select a payment method")
	}

	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout.pay")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("payment.method", string(s.Method)),
		attribute.String("payment.amount", s.Quote.Advance.String()),
	)
	log := f.logger.WithField("session_id", s.ID)

	if err := s.transition(StateProcessing); err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := f.gateway.Begin(ctx, payment.Charge{
		Amount:      s.Quote.Advance,
		Method:      s.Method,
		Description: "Advance for " + s.Draft.PropertyName,
	})
	if err != nil {
		s.State = StateOptions
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment begin failed")
		return nil, errors.Wrap(err, "begin payment")
	}
	s.Payment = rec
	log = log.WithField("order_id", rec.OrderID)
	log.Info("payment processing")

	done, err := f.gateway.Await(ctx, rec)
	observability.PaymentDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if done != nil {
			s.Payment = done
			f.auditPayment(ctx, log, *done)
		}
		s.State = StateOptions
		observability.CheckoutsTotal.WithLabelValues("declined").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment not completed")
		log.WithField("error", err.Error()).Warn("payment not completed")
		return nil, err
	}
	s.Payment = done
	if err := s.transition(StateSuccess); err != nil {
		return nil, err
	}
	f.auditPayment(ctx, log, *done)
	log.Info("payment successful")

	receipt := &Receipt{
		SessionID: s.ID,
		State:     s.State,
		Payment:   *done,
		Quote:     s.Quote,
	}

	ticketID := domain.TicketIDForOrder(done.OrderID)
	ticket, err := f.tickets.Create(ctx, domain.NewETicket{
		TicketID:     ticketID,
		PropertyID:   s.Draft.PropertyID,
		GuestName:    s.Draft.GuestName,
		CheckInDate:  domain.DisplayDate(s.Draft.CheckIn),
		CheckOutDate: domain.DisplayDate(s.Draft.CheckOut),
		PaidAmount:   domain.FormatINR(s.Quote.Advance),
		DueAmount:    domain.FormatINR(s.Quote.Due),
	})
	if err != nil {
		receipt.Warning = WarningTicketFailed
		receipt.TicketErr = errors.Mark(errors.Wrapf(err, "create ticket %s", ticketID), domain.ErrTransientBackend)
		observability.CheckoutsTotal.WithLabelValues("ticket_failed").Inc()
		span.RecordError(err)
		log.WithField("error", err.Error()).Error("ticket creation failed after payment")
		return receipt, nil
	}
	receipt.Ticket = ticket
	if f.ticketURL != nil {
		receipt.TicketURL = f.ticketURL(ticket.TicketID)
	}
	span.SetAttributes(attribute.String("ticket.id", ticket.TicketID))

	if f.notifier != nil {
		name := ticket.PropertyName
		if s.Draft.PropertyName != "" && name == domain.FallbackPropertyName {
			name = s.Draft.PropertyName
		}
		err := f.notifier.Dispatch(ctx, notify.Booking{
			TicketID:      ticket.TicketID,
			TicketURL:     receipt.TicketURL,
			PropertyName:  name,
			MapLink:       ticket.MapLink,
			GuestName:     ticket.GuestName,
			GuestPhone:    s.Draft.Mobile,
			CheckInDate:   ticket.CheckInDate,
			Total:         s.Quote.Total,
			Advance:       s.Quote.Advance,
			Due:           s.Quote.Due,
			OrderID:       done.OrderID,
			PaymentMethod: s.Method.Label(),
		})
		if err != nil {
			log.WithField("error", err.Error()).Warn("notification dispatch failed")
		}
	}

	observability.CheckoutsTotal.WithLabelValues("success").Inc()
	return receipt, nil
}

func (f *Flow) auditPayment(ctx context.Context, log observability.Logger, rec payment.Record) {
	if f.audit == nil {
		return
	}
	if err := f.audit.LogPayment(ctx, rec); err != nil {
		log.WithField("error", err.Error()).Warn("audit payment failed")
	}
}
