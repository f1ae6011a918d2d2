// Package ledger implements the ledger tracker's operations: permission
// checks, ledger and transaction CRUD, bulk CSV import, users and the admin
// mailbox. Every operation receives the calling principal explicitly.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/events"
)

const defaultClientURL = "http://localhost:3000"

// Service runs ledger operations against a Repository.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
	clientURL string
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the domain event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClientURL sets the base URL used in invitation links.
func WithClientURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.clientURL = u
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		logger:    slog.Default(),
		clientURL: defaultClientURL,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.NewLogPublisher(s.logger)
	}
	return s
}

func requireAdmin(p access.Principal) error {
	if !access.CanMutate(p) {
		return accessDenied("Admin access required")
	}
	return nil
}

// publish delivers e. Failures are logged and never fail the caller.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "type", e.Type, "key", e.Key, "error", err)
	}
}
