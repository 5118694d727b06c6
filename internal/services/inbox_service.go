package services

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"github.com/kiffoh/messaging-app-mongoDB/internal/naming"
	"github.com/kiffoh/messaging-app-mongoDB/internal/repository"
	"go.uber.org/zap"
)

type InboxService struct {
	chats    repository.ChatRepository
	resolver naming.Resolver
	logger   *zap.Logger
}

func NewInboxService(chats repository.ChatRepository, resolver naming.Resolver, logger *zap.Logger) *InboxService {
	return &InboxService{chats: chats, resolver: resolver, logger: logger}
}

// List returns every chat userID belongs to, most recently active first, with
// members and messages embedded and names resolved for userID.
func (s *InboxService) List(ctx context.Context, userID string) ([]domain.Chat, error) {
	viewer, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	details, err := s.chats.ListForMember(ctx, viewer)
	if err != nil {
		return nil, storeErr(err, "list chats")
	}
	SortByActivity(details)

	out := make([]domain.Chat, 0, len(details))
	for i := range details {
		d := &details[i]
		c := present(s.resolver, &d.Chat, d.MemberUsers, viewer, d.Messages)
		c.LastActivity = activity(d)
		out = append(out, *c)
	}
	s.logger.Debug("inbox listed", zap.String("user_id", userID), zap.Int("chats", len(out)))
	return out, nil
}

// SortByActivity orders chats by last activity, newest first. Chats with the
// same activity time are ordered by id, oldest first.
func SortByActivity(chats []models.ChatDetails) {
	sort.SliceStable(chats, func(i, j int) bool {
		ai, aj := activity(&chats[i]), activity(&chats[j])
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return bytes.Compare(chats[i].ID[:], chats[j].ID[:]) < 0
	})
}

// activity is the newest message time, or updatedAt for a chat without
// messages.
func activity(d *models.ChatDetails) time.Time {
	if !d.LastActivity.IsZero() {
		return d.LastActivity
	}
	var newest time.Time
	for _, m := range d.Messages {
		if m.CreatedAt.After(newest) {
			newest = m.CreatedAt
		}
	}
	if newest.IsZero() {
		return d.UpdatedAt
	}
	return newest
}
