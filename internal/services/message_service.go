package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"github.com/kiffoh/messaging-app-mongoDB/internal/repository"
	"go.uber.org/zap"
)

type CreateMessageInput struct {
	Content  string
	ChatID   string
	AuthorID string
	PhotoURL *string
}

type MessageService struct {
	chats     repository.ChatRepository
	messages  repository.MessageRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewMessageService(chats repository.ChatRepository, messages repository.MessageRepository, publisher events.Publisher, logger *zap.Logger) *MessageService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &MessageService{chats: chats, messages: messages, publisher: publisher, logger: logger}
}

func (s *MessageService) Create(ctx context.Context, in CreateMessageInput) (*domain.Message, error) {
	chatID, err := parseID(in.ChatID)
	if err != nil {
		return nil, err
	}
	authorID, err := parseID(in.AuthorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" && (in.PhotoURL == nil || *in.PhotoURL == "") {
		return nil, invalid("a message needs content or a photo")
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, storeErr(err, "chat")
	}
	if !chat.IsMember(authorID) {
		return nil, fmt.Errorf("post to chat: %w", ErrPermissionDenied)
	}

	m := &models.Message{
		Content:  in.Content,
		PhotoURL: in.PhotoURL,
		AuthorID: authorID,
		ChatID:   chatID,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, storeErr(err, "create message")
	}

	out := domain.NewMessage(m)
	s.notify(ctx, events.MessageCreated{Message: out})
	return &out, nil
}

// Update replaces the content of one of the requester's own messages.
func (s *MessageService) Update(ctx context.Context, chatID, messageID, requesterID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content is required")
	}
	m, err := s.owned(ctx, chatID, messageID, requesterID)
	if err != nil {
		return nil, err
	}

	updated, err := s.messages.UpdateContent(ctx, m.ID, content)
	if err != nil {
		return nil, storeErr(err, "message")
	}

	out := domain.NewMessage(updated)
	s.notify(ctx, events.MessageUpdated{Message: out})
	return &out, nil
}

func (s *MessageService) Delete(ctx context.Context, chatID, messageID, requesterID string) error {
	m, err := s.owned(ctx, chatID, messageID, requesterID)
	if err != nil {
		return err
	}
	if err := s.messages.Delete(ctx, m.ID); err != nil {
		return storeErr(err, "message")
	}

	s.notify(ctx, events.MessageDeleted{MessageID: m.ID.Hex(), ChatID: m.ChatID.Hex()})
	return nil
}

// owned loads a message of chatID authored by requesterID. A message filed
// under another chat is reported as missing.
func (s *MessageService) owned(ctx context.Context, chatID, messageID, requesterID string) (*models.Message, error) {
	cid, err := parseID(chatID)
	if err != nil {
		return nil, err
	}
	mid, err := parseID(messageID)
	if err != nil {
		return nil, err
	}
	requester, err := parseID(requesterID)
	if err != nil {
		return nil, err
	}

	m, err := s.messages.GetByID(ctx, mid)
	if err != nil {
		return nil, storeErr(err, "message")
	}
	if m.ChatID != cid {
		return nil, fmt.Errorf("message %w", ErrNotFound)
	}
	if m.AuthorID != requester {
		return nil, fmt.Errorf("modify message: %w", ErrPermissionDenied)
	}
	return m, nil
}

func (s *MessageService) notify(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event", zap.String("event", e.Name()), zap.Error(err))
	}
}
