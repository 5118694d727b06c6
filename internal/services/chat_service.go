package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/ident"
	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"github.com/kiffoh/messaging-app-mongoDB/internal/naming"
	"github.com/kiffoh/messaging-app-mongoDB/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CreateGroupInput struct {
	// MemberIDs lists the members; the first one is the creator.
	MemberIDs []string
	Name      *string
	Photo     *string
	Bio       *string
}

type ChatPatch struct {
	Name  *string
	Bio   *string
	Photo *string
}

type ChatService struct {
	chats      repository.ChatRepository
	users      repository.UserRepository
	resolver   naming.Resolver
	defaultBio string
	logger     *zap.Logger
}

func NewChatService(chats repository.ChatRepository, users repository.UserRepository, resolver naming.Resolver, defaultBio string, logger *zap.Logger) *ChatService {
	return &ChatService{
		chats:      chats,
		users:      users,
		resolver:   resolver,
		defaultBio: defaultBio,
		logger:     logger,
	}
}

// FindOrCreateDirect returns the direct chat between a and b, creating it when
// none exists. existed reports whether the chat was already there. The chat is
// named as a sees it.
func (s *ChatService) FindOrCreateDirect(ctx context.Context, a, b string) (chat *domain.Chat, existed bool, err error) {
	ids, err := parseIDs([]string{a, b})
	if err != nil {
		return nil, false, err
	}
	if ids[0] == ids[1] {
		return nil, false, invalid("a direct chat needs two different users")
	}

	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, false, storeErr(err, "load members")
	}
	if len(users) != len(ids) {
		return nil, false, fmt.Errorf("user %w", ErrNotFound)
	}

	stored, existed, err := s.findOrCreateDirect(ctx, ids[0], ids[1])
	if err != nil {
		return nil, false, err
	}
	return s.view(stored, users, ids[0], nil), existed, nil
}

func (s *ChatService) findOrCreateDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, bool, error) {
	found, err := s.chats.FindDirect(ctx, a, b)
	if err == nil {
		return found, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, storeErr(err, "find direct chat")
	}

	key := models.PairKey(a, b)
	chat := &models.Chat{
		IsDirect: true,
		Members:  []primitive.ObjectID{a, b},
		Admins:   []primitive.ObjectID{},
		PairKey:  &key,
	}
	err = s.chats.Create(ctx, chat)
	if errors.Is(err, repository.ErrDuplicate) {
		// a concurrent request inserted the pair first
		winner, err := s.chats.FindDirect(ctx, a, b)
		if err != nil {
			return nil, false, storeErr(err, "find direct chat")
		}
		return winner, true, nil
	}
	if err != nil {
		return nil, false, storeErr(err, "create direct chat")
	}
	s.logger.Info("direct chat created", zap.String("chat_id", chat.ID.Hex()), zap.String("pair", key))
	return chat, false, nil
}

// CreateDirectMessage opens a direct chat between exactly two users. The first
// id is the viewer the result is named for.
func (s *ChatService) CreateDirectMessage(ctx context.Context, memberIDs []string) (*domain.Chat, bool, error) {
	if len(memberIDs) != 2 {
		return nil, false, invalid("a direct chat needs exactly two members, got %d", len(memberIDs))
	}
	return s.FindOrCreateDirect(ctx, memberIDs[0], memberIDs[1])
}

// CreateGroup creates a group chat administered by its first member. A named
// group whose name and member set match an existing group is not created
// again; the existing one is returned with existed set.
func (s *ChatService) CreateGroup(ctx context.Context, in CreateGroupInput) (*domain.Chat, bool, error) {
	ids, err := parseIDs(in.MemberIDs)
	if err != nil {
		return nil, false, err
	}
	ids = unique(ids)
	if len(ids) == 0 {
		return nil, false, invalid("a group needs at least one member")
	}
	creator := ids[0]

	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, false, storeErr(err, "load members")
	}
	if len(users) != len(ids) {
		return nil, false, fmt.Errorf("user %w", ErrNotFound)
	}

	name := in.Name
	if name != nil && strings.TrimSpace(*name) == "" {
		name = nil
	}
	if name != nil {
		found, err := s.chats.FindGroup(ctx, *name, ids)
		if err == nil {
			return s.view(found, users, creator, nil), true, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, storeErr(err, "find group")
		}
	}

	bio := s.defaultBio
	if in.Bio != nil {
		bio = *in.Bio
	}
	chat := &models.Chat{
		Name:     name,
		Photo:    in.Photo,
		Bio:      bio,
		IsDirect: false,
		Members:  ids,
		Admins:   []primitive.ObjectID{creator},
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, false, storeErr(err, "create group")
	}
	s.logger.Info("group created", zap.String("chat_id", chat.ID.Hex()), zap.Int("members", len(ids)))
	return s.view(chat, users, creator, nil), false, nil
}

// GetChat returns the chat with its members and admins, named for viewerID.
func (s *ChatService) GetChat(ctx context.Context, chatID, viewerID string) (*domain.Chat, error) {
	id, err := parseID(chatID)
	if err != nil {
		return nil, err
	}
	viewer, err := parseID(viewerID)
	if err != nil {
		return nil, err
	}

	chat, err := s.chats.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "chat")
	}
	users, err := s.chatUsers(ctx, chat)
	if err != nil {
		return nil, err
	}

	out := s.view(chat, users, viewer, nil)
	created := chat.CreatedAt.UTC()
	out.CreatedAtDate = created.Format("02-01-2006")
	out.CreatedAtTime = created.Format("15:04")
	return out, nil
}

// UpdateChat applies the non-nil fields of patch.
func (s *ChatService) UpdateChat(ctx context.Context, chatID, viewerID string, patch ChatPatch) (*domain.Chat, error) {
	id, err := parseID(chatID)
	if err != nil {
		return nil, err
	}
	viewer, err := parseID(viewerID)
	if err != nil {
		return nil, err
	}
	upd := repository.ChatUpdate{Name: patch.Name, Bio: patch.Bio, Photo: patch.Photo}
	if upd.Empty() {
		return nil, invalid("nothing to update")
	}

	chat, err := s.chats.Update(ctx, id, upd)
	if err != nil {
		return nil, storeErr(err, "chat")
	}
	users, err := s.chatUsers(ctx, chat)
	if err != nil {
		return nil, err
	}
	return s.view(chat, users, viewer, nil), nil
}

// DeleteChat removes the chat and all of its messages. Only admins may do so.
func (s *ChatService) DeleteChat(ctx context.Context, chatID, requesterID string) error {
	id, err := parseID(chatID)
	if err != nil {
		return err
	}
	requester, err := parseID(requesterID)
	if err != nil {
		return err
	}

	chat, err := s.chats.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "chat")
	}
	if !chat.IsAdmin(requester) {
		return fmt.Errorf("delete chat: %w", ErrPermissionDenied)
	}

	removed, err := s.chats.DeleteWithMessages(ctx, id)
	if err != nil {
		return storeErr(err, "chat")
	}
	s.logger.Info("chat deleted",
		zap.String("chat_id", chatID),
		zap.String("by", requesterID),
		zap.Int64("messages", removed),
	)
	return nil
}

// chatUsers loads members and any admin that is no longer a member.
func (s *ChatService) chatUsers(ctx context.Context, chat *models.Chat) ([]models.User, error) {
	ids := unique(append(append([]primitive.ObjectID{}, chat.Members...), chat.Admins...))
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "load members")
	}
	return users, nil
}

func (s *ChatService) view(chat *models.Chat, users []models.User, viewer primitive.ObjectID, msgs []models.Message) *domain.Chat {
	return present(s.resolver, chat, users, viewer, msgs)
}

// present resolves the display name of chat for viewer and maps it to its
// response form.
func present(r naming.Resolver, chat *models.Chat, users []models.User, viewer primitive.ObjectID, msgs []models.Message) *domain.Chat {
	members := repository.OrderUsers(chat.Members, users)
	nm := make([]naming.Member, 0, len(members))
	for _, u := range members {
		nm = append(nm, naming.Member{ID: ident.ToExternal(u.ID), Username: u.Username, Photo: u.Photo})
	}
	display := r.Resolve(naming.Input{
		ViewerID: ident.ToExternal(viewer),
		Name:     chat.Name,
		Photo:    chat.Photo,
		Members:  nm,
	})
	return domain.NewChat(chat, display.Name, display.Photo, users, msgs)
}
