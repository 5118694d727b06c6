package services

import (
	"context"
	"testing"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type messageFixture struct {
	store *store
	svc   *MessageService
	pub   *capture
	alice models.User
	bob   models.User
	carol models.User
	chat  models.Chat
}

func newMessageFixture() *messageFixture {
	s := newStore()
	f := &messageFixture{store: s, pub: &capture{}}
	f.alice, f.bob, f.carol = s.addUser("alice"), s.addUser("bob"), s.addUser("carol")
	f.chat = s.addChat(models.Chat{Members: []primitive.ObjectID{f.alice.ID, f.bob.ID}})
	f.svc = NewMessageService(fakeChatRepo{s}, fakeMessageRepo{s}, f.pub, zap.NewNop())
	return f
}

func TestMessageCreate(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	msg, err := f.svc.Create(ctx, CreateMessageInput{Content: "hello", ChatID: f.chat.ID.Hex(), AuthorID: f.alice.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, f.chat.ID.Hex(), msg.ChatID)
	assert.Equal(t, f.alice.ID.Hex(), msg.AuthorID)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, 1, f.store.messagesOf(f.chat.ID))

	published := f.pub.all()
	require.Len(t, published, 1)
	created, ok := published[0].(events.MessageCreated)
	require.True(t, ok)
	assert.Equal(t, msg.ID, created.Message.ID)

	photoOnly, err := f.svc.Create(ctx, CreateMessageInput{ChatID: f.chat.ID.Hex(), AuthorID: f.bob.ID.Hex(), PhotoURL: strPtr("https://cdn.example.com/p.png")})
	require.NoError(t, err)
	require.NotNil(t, photoOnly.PhotoURL)
}

func TestMessageCreate_Rejected(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateMessageInput{Content: "  ", ChatID: f.chat.ID.Hex(), AuthorID: f.alice.ID.Hex()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, CreateMessageInput{Content: "hi", ChatID: "bad", AuthorID: f.alice.ID.Hex()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, CreateMessageInput{Content: "hi", ChatID: primitive.NewObjectID().Hex(), AuthorID: f.alice.ID.Hex()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Create(ctx, CreateMessageInput{Content: "hi", ChatID: f.chat.ID.Hex(), AuthorID: f.carol.ID.Hex()})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	assert.Equal(t, 0, f.store.messagesOf(f.chat.ID))
	assert.Empty(t, f.pub.all())
}

func TestMessageUpdate(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	m := f.store.addMessage(f.chat.ID, f.alice.ID, "draft", time.Now())

	_, err := f.svc.Update(ctx, f.chat.ID.Hex(), m.ID.Hex(), f.bob.ID.Hex(), "hijack")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.svc.Update(ctx, primitive.NewObjectID().Hex(), m.ID.Hex(), f.alice.ID.Hex(), "moved")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Update(ctx, f.chat.ID.Hex(), m.ID.Hex(), f.alice.ID.Hex(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := f.svc.Update(ctx, f.chat.ID.Hex(), m.ID.Hex(), f.alice.ID.Hex(), "final")
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)

	published := f.pub.all()
	require.Len(t, published, 1)
	assert.Equal(t, events.NameMessageUpdated, published[0].Name())
}

func TestMessageDelete(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	m := f.store.addMessage(f.chat.ID, f.alice.ID, "bye", time.Now())

	err := f.svc.Delete(ctx, f.chat.ID.Hex(), m.ID.Hex(), f.bob.ID.Hex())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, f.store.messagesOf(f.chat.ID))

	require.NoError(t, f.svc.Delete(ctx, f.chat.ID.Hex(), m.ID.Hex(), f.alice.ID.Hex()))
	assert.Equal(t, 0, f.store.messagesOf(f.chat.ID))

	published := f.pub.all()
	require.Len(t, published, 1)
	assert.Equal(t, events.MessageDeleted{MessageID: m.ID.Hex(), ChatID: f.chat.ID.Hex()}, published[0])

	err = f.svc.Delete(ctx, f.chat.ID.Hex(), m.ID.Hex(), f.alice.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return assert.AnError
}

func TestMessageCreate_NotificationFailureDoesNotFailWrite(t *testing.T) {
	s := newStore()
	alice := s.addUser("alice")
	chat := s.addChat(models.Chat{Members: []primitive.ObjectID{alice.ID}})
	svc := NewMessageService(fakeChatRepo{s}, fakeMessageRepo{s}, failingPublisher{}, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateMessageInput{Content: "hi", ChatID: chat.ID.Hex(), AuthorID: alice.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, 1, s.messagesOf(chat.ID))
}
