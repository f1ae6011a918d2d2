package store

import (
	"context"
	"fmt"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// CreateMessage stores a new message.
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	if err := s.Put(ctx, BucketMessages, m.ID.String(), m); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *Store) GetMessage(ctx context.Context, id models.MessageID) (*models.Message, error) {
	var m models.Message
	if err := s.Get(ctx, BucketMessages, id.String(), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages retrieves all messages.
func (s *Store) ListMessages(ctx context.Context) ([]*models.Message, error) {
	return listAs[models.Message](ctx, s, BucketMessages, nil)
}

// UpdateMessage overwrites an existing message.
func (s *Store) UpdateMessage(ctx context.Context, m *models.Message) error {
	return s.Replace(ctx, BucketMessages, m.ID.String(), m)
}

// DeleteMessage deletes a message by ID.
func (s *Store) DeleteMessage(ctx context.Context, id models.MessageID) error {
	return s.Delete(ctx, BucketMessages, id.String())
}
