package ledger

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/Domi-X-in/financial-ledger-app/internal/access"
	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// SendMessage stores a message from p to the platform admins.
func (s *Service) SendMessage(ctx context.Context, p access.Principal, req *models.CreateMessageRequest) (*models.Message, error) {
	if p.UserID == "" {
		return nil, accessDenied("Authentication required")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, invalid("Content is required")
	}
	m := &models.Message{
		ID:        models.NewMessageID(),
		Sender:    p.UserID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, storageError("create message", err)
	}
	return m, nil
}

// ListMessages returns every message, newest first, with senders populated.
func (s *Service) ListMessages(ctx context.Context, p access.Principal) ([]models.MessageView, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx)
	if err != nil {
		return nil, storageError("list messages", err)
	}
	slices.SortStableFunc(msgs, func(a, b *models.Message) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	senders := make(map[models.UserID]*models.UserRef)
	out := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		ref, ok := senders[m.Sender]
		if !ok {
			ref, err = s.userRef(ctx, m.Sender)
			if err != nil {
				return nil, err
			}
			senders[m.Sender] = ref
		}
		out = append(out, models.MessageView{Message: *m, SenderRef: ref})
	}
	return out, nil
}

// MarkMessageRead flags a message as read.
func (s *Service) MarkMessageRead(ctx context.Context, p access.Principal, id models.MessageID) (*models.Message, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	m, err := s.message(ctx, id)
	if err != nil {
		return nil, err
	}
	m.IsRead = true
	if err := s.repo.UpdateMessage(ctx, m); err != nil {
		return nil, storageError("update message", err)
	}
	return m, nil
}

// DeleteMessage removes a message.
func (s *Service) DeleteMessage(ctx context.Context, p access.Principal, id models.MessageID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	m, err := s.message(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMessage(ctx, m.ID); err != nil {
		return storageError("delete message", err)
	}
	return nil
}

func (s *Service) message(ctx context.Context, id models.MessageID) (*models.Message, error) {
	if id == "" {
		return nil, notFound("Message")
	}
	m, err := s.repo.GetMessage(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("Message")
	}
	if err != nil {
		return nil, storageError("get message", err)
	}
	return m, nil
}
