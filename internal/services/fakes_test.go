package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"github.com/kiffoh/messaging-app-mongoDB/internal/naming"
	"github.com/kiffoh/messaging-app-mongoDB/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// store is an in-memory stand-in for the three collections.
type store struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	chats    map[primitive.ObjectID]models.Chat
	messages map[primitive.ObjectID]models.Message

	// beforeCreateChat runs before a chat insert is applied.
	beforeCreateChat func()
	failDelete       error
}

func newStore() *store {
	return &store{
		users:    map[primitive.ObjectID]models.User{},
		chats:    map[primitive.ObjectID]models.Chat{},
		messages: map[primitive.ObjectID]models.Message{},
	}
}

func (s *store) addUser(username string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: primitive.NewObjectID(), Username: username, Contacts: []primitive.ObjectID{}}
	s.users[u.ID] = u
	return u
}

func (s *store) addChat(c models.Chat) models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.chats[c.ID] = c
	return c
}

func (s *store) addMessage(chatID, author primitive.ObjectID, content string, at time.Time) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := models.Message{ID: primitive.NewObjectID(), Content: content, AuthorID: author, ChatID: chatID, CreatedAt: at, UpdatedAt: at}
	s.messages[m.ID] = m
	return m
}

func (s *store) countChats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

func (s *store) messagesOf(chatID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.ChatID == chatID {
			n++
		}
	}
	return n
}

type fakeUserRepo struct{ *store }

func (r fakeUserRepo) EnsureIndexes(context.Context) error { return nil }

func (r fakeUserRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return nil, repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	if u.Contacts == nil {
		u.Contacts = []primitive.ObjectID{}
	}
	r.users[u.ID] = *u
	return u, nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeUserRepo) GetMany(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			found = append(found, u)
		}
	}
	return repository.OrderUsers(ids, found), nil
}

func (r fakeUserRepo) Update(_ context.Context, id primitive.ObjectID, upd repository.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Username != nil {
		for other, existing := range r.users {
			if other != id && existing.Username == *upd.Username {
				return nil, repository.ErrDuplicate
			}
		}
		u.Username = *upd.Username
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Photo != nil {
		u.Photo = upd.Photo
	}
	r.users[id] = u
	return &u, nil
}

func (r fakeUserRepo) SetContacts(_ context.Context, id primitive.ObjectID, contacts []primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Contacts = contacts
	r.users[id] = u
	return &u, nil
}

func (r fakeUserRepo) ListUsernames(context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		out = append(out, models.User{ID: u.ID, Username: u.Username, Photo: u.Photo})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeChatRepo struct{ *store }

func (r fakeChatRepo) EnsureIndexes(context.Context) error { return nil }

func (r fakeChatRepo) Create(_ context.Context, c *models.Chat) error {
	if r.beforeCreateChat != nil {
		r.beforeCreateChat()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.IsDirect && c.PairKey != nil {
		for _, existing := range r.chats {
			if existing.IsDirect && existing.PairKey != nil && *existing.PairKey == *c.PairKey {
				return repository.ErrDuplicate
			}
		}
	}
	c.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	r.chats[c.ID] = *c
	return nil
}

func (r fakeChatRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func sameMembers(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	set := map[primitive.ObjectID]bool{}
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

func (r fakeChatRepo) FindDirect(_ context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if c.IsDirect && sameMembers(c.Members, []primitive.ObjectID{a, b}) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeChatRepo) FindGroup(_ context.Context, name string, members []primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if !c.IsDirect && c.Name != nil && *c.Name == name && sameMembers(c.Members, members) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeChatRepo) ListForMember(_ context.Context, userID primitive.ObjectID) ([]models.ChatDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChatDetails
	for _, c := range r.chats {
		if !c.IsMember(userID) {
			continue
		}
		d := models.ChatDetails{Chat: c}
		for _, id := range c.Members {
			if u, ok := r.users[id]; ok {
				d.MemberUsers = append(d.MemberUsers, u)
			}
		}
		for _, m := range r.messages {
			if m.ChatID == c.ID {
				d.Messages = append(d.Messages, m)
			}
		}
		sort.Slice(d.Messages, func(i, j int) bool { return d.Messages[i].CreatedAt.After(d.Messages[j].CreatedAt) })
		out = append(out, d)
	}
	return out, nil
}

func (r fakeChatRepo) Update(_ context.Context, id primitive.ObjectID, upd repository.ChatUpdate) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = upd.Name
	}
	if upd.Bio != nil {
		c.Bio = *upd.Bio
	}
	if upd.Photo != nil {
		c.Photo = upd.Photo
	}
	c.UpdatedAt = time.Now().UTC()
	r.chats[id] = c
	return &c, nil
}

func (r fakeChatRepo) DeleteWithMessages(_ context.Context, id primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return 0, r.failDelete
	}
	if _, ok := r.chats[id]; !ok {
		return 0, repository.ErrNotFound
	}
	var n int64
	for mid, m := range r.messages {
		if m.ChatID == id {
			delete(r.messages, mid)
			n++
		}
	}
	delete(r.chats, id)
	return n, nil
}

type fakeMessageRepo struct{ *store }

func (r fakeMessageRepo) EnsureIndexes(context.Context) error { return nil }

func (r fakeMessageRepo) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	r.messages[m.ID] = *m
	return nil
}

func (r fakeMessageRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r fakeMessageRepo) UpdateContent(_ context.Context, id primitive.ObjectID, content string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.Content = content
	m.UpdatedAt = time.Now().UTC()
	r.messages[id] = m
	return &m, nil
}

func (r fakeMessageRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

type capture struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capture) Publish(_ context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capture) all() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event(nil), c.events...)
}

var testResolver = naming.Resolver{DefaultPicture: "person.png", DefaultGroupPicture: "group.png"}

func newChatService(s *store) *ChatService {
	return NewChatService(fakeChatRepo{s}, fakeUserRepo{s}, testResolver, "Welcome to the group!", zap.NewNop())
}

func strPtr(s string) *string { return &s }
