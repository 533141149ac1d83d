package notifications

import (
	"context"
	"time"

	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
)

// Service stores notifications and pushes them to live connections.
// It satisfies the Notifier interfaces declared by the workflow packages.
type Service struct {
	repo   Repository
	hub    *Hub
	logger *zap.Logger
}

func NewService(repo Repository, hub *Hub, logger *zap.Logger) *Service {
	return &Service{repo: repo, hub: hub, logger: logger}
}

// Notify stores an in-app notification and pushes it to any live
// connections. Failures are logged and swallowed: notification delivery
// must never affect the business transition behind it.
func (s *Service) Notify(ctx context.Context, toUser, title, content string) {
	n := &Notification{
		ToUsername: toUser,
		Title:      title,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to store notification",
			zap.String("to", toUser), zap.String("title", title), zap.Error(err))
		return
	}
	if s.hub != nil {
		s.hub.Push(toUser, PushMessage{
			Type:      "notification",
			Title:     title,
			Content:   content,
			Timestamp: n.CreatedAt,
		})
	}
}

func (s *Service) ListForUser(ctx context.Context, username string) ([]Notification, error) {
	return s.repo.ListForUser(ctx, username)
}

// MarkRead marks a notification read. Only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, username string, id uint) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return apperr.NotFoundf("notification %d not found", id)
	}
	if n.ToUsername != username {
		return apperr.Forbiddenf("notification %d belongs to another user", id)
	}
	return s.repo.MarkRead(ctx, id)
}
