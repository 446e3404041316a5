package eticket

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/observability"
)

type Store interface {
	CreateTicket(ctx context.Context, t domain.ETicket) error
	GetTicket(ctx context.Context, ticketID string) (*domain.ETicket, error)
}

type PropertyLookup interface {
	GetProperty(ctx context.Context, id string) (*domain.Property, error)
}

// Cache returns (nil, nil) on a miss.
type Cache interface {
	GetTicket(ctx context.Context, ticketID string) (*domain.ETicket, error)
	SetTicket(ctx context.Context, t domain.ETicket) error
}

type Auditor interface {
	LogTicket(ctx context.Context, t domain.ETicket) error
}

type Service struct {
	store      Store
	properties PropertyLookup
	cache      Cache
	audit      Auditor
	logger     observability.Logger
	now        func() time.Time
}

// NewService wires the e-ticket store. cache and audit may be nil.
func NewService(store Store, properties PropertyLookup, cache Cache, audit Auditor, logger observability.Logger) *Service {
	return &Service{
		store:      store,
		properties: properties,
		cache:      cache,
		audit:      audit,
		logger:     logger,
		now:        time.Now,
	}
}

// Create persists a new ticket and returns it with the property name
// resolved. An existing ticket id is rejected with domain.ErrConflict.
func (s *Service) Create(ctx context.Context, in domain.NewETicket) (*domain.ETicket, error) {
	if err := in.Validate(); err != nil {
		observability.TicketsCreated.WithLabelValues("invalid").Inc()
		return nil, err
	}

	t := in.Ticket(s.now())
	if err := s.store.CreateTicket(ctx, t); err != nil {
		result := "error"
		if domain.IsConflict(err) {
			result = "conflict"
		}
		observability.TicketsCreated.WithLabelValues(result).Inc()
		return nil, err
	}
	observability.TicketsCreated.WithLabelValues("created").Inc()

	log := s.logger.WithField("ticket_id", t.TicketID)
	t.PropertyName = domain.FallbackPropertyName
	prop, err := s.properties.GetProperty(ctx, t.PropertyID)
	switch {
	case err == nil:
		t.PropertyName = prop.Title
		t.MapLink = prop.MapLink
	case domain.IsNotFound(err):
		log.WithField("property_id", t.PropertyID).Warn("ticket references unknown property")
	default:
		log.WithField("error", err.Error()).Warn("property lookup failed")
	}

	if s.audit != nil {
		if err := s.audit.LogTicket(ctx, t); err != nil {
			log.WithField("error", err.Error()).Warn("audit ticket failed")
		}
	}
	log.Info("eticket created")
	return &t, nil
}

// Get returns the ticket joined with its property. A ticket whose property
// no longer exists is reported as not found.
func (s *Service) Get(ctx context.Context, ticketID string) (*domain.ETicket, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, domain.NewValidationError("ticket_id", "is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetTicket(ctx, ticketID)
		if err != nil {
			s.logger.WithField("error", err.Error()).Warn("ticket cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	prop, err := s.properties.GetProperty(ctx, t.PropertyID)
	if domain.IsNotFound(err) {
		return nil, errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve property")
	}
	t.PropertyName = prop.Title
	t.MapLink = prop.MapLink

	if s.cache != nil {
		if err := s.cache.SetTicket(ctx, *t); err != nil {
			s.logger.WithField("error", err.Error()).Warn("ticket cache write failed")
		}
	}
	return t, nil
}
