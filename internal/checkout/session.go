package checkout

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/payment"
)

type State string

const (
	StateOptions    State = "OPTIONS"
	StateProcessing State = "PROCESSING"
	StateSuccess    State = "SUCCESS"
)

var ErrInvalidTransition = errors.New("invalid payment state transition")

// PROCESSING falls back to OPTIONS when the payment is declined or abandoned.
var transitions = map[State][]State{
	StateOptions:    {StateProcessing},
	StateProcessing: {StateSuccess, StateOptions},
}

func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Session is one guest's way through the payment screen.
type Session struct {
	ID      string
	State   State
	Method  payment.Method
	Draft   domain.BookingDraft
	Quote   domain.Quote
	Payment *payment.Record
}

func newSession(draft domain.BookingDraft) *Session {
	return &Session{
		ID:    uuid.NewString(),
		State: StateOptions,
		Draft: draft,
		Quote: draft.Quote(),
	}
}

func (s *Session) SelectMethod(m payment.Method) error {
	if s.State != StateOptions {
		return errors.Wrapf(ErrInvalidTransition, "select method in %s", s.State)
	}
	if _, ok := payment.ParseMethod(string(m)); !ok {
		return domain.NewValidationError("method", "unsupported payment method")
	}
	s.Method = m
	return nil
}

func (s *Session) transition(to State) error {
	if !CanTransition(s.State, to) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", s.State, to)
	}
	s.State = to
	return nil
}
