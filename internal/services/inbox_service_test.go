package services

import (
	"context"
	"testing"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestInbox_OrderedByLastActivity(t *testing.T) {
	s := newStore()
	alice, bob, carol := s.addUser("alice"), s.addUser("bob"), s.addUser("carol")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// A has a message at t=10, B has none and was updated at t=5
	chatA := s.addChat(models.Chat{Members: []primitive.ObjectID{alice.ID, bob.ID}, UpdatedAt: base})
	chatB := s.addChat(models.Chat{Members: []primitive.ObjectID{alice.ID, bob.ID, carol.ID}, Admins: []primitive.ObjectID{alice.ID}, UpdatedAt: base.Add(5 * time.Second)})
	s.addMessage(chatA.ID, bob.ID, "older", base.Add(2*time.Second))
	s.addMessage(chatA.ID, bob.ID, "newest", base.Add(10*time.Second))
	notMine := s.addChat(models.Chat{Members: []primitive.ObjectID{bob.ID, carol.ID}, UpdatedAt: base.Add(time.Hour)})

	svc := NewInboxService(fakeChatRepo{s}, testResolver, zap.NewNop())
	inbox, err := svc.List(context.Background(), alice.ID.Hex())
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	assert.Equal(t, chatA.ID.Hex(), inbox[0].ID)
	assert.Equal(t, "bob", inbox[0].Name)
	assert.Equal(t, base.Add(10*time.Second), inbox[0].LastActivity)
	require.Len(t, inbox[0].Messages, 2)
	assert.Equal(t, "newest", inbox[0].Messages[0].Content)
	assert.Equal(t, bob.ID.Hex(), inbox[0].Messages[0].AuthorID)
	assert.Equal(t, chatA.ID.Hex(), inbox[0].Messages[0].ChatID)

	assert.Equal(t, chatB.ID.Hex(), inbox[1].ID)
	assert.Equal(t, "bob & carol", inbox[1].Name)
	assert.Equal(t, "group.png", inbox[1].Photo)
	assert.Empty(t, inbox[1].Messages)
	require.Len(t, inbox[1].Admins, 1)
	assert.Equal(t, "alice", inbox[1].Admins[0].Username)

	for _, c := range inbox {
		assert.NotEqual(t, notMine.ID.Hex(), c.ID)
	}
}

func TestInbox_NamesRelativeToViewer(t *testing.T) {
	s := newStore()
	alice, bob, carol := s.addUser("alice"), s.addUser("bob"), s.addUser("carol")
	s.addChat(models.Chat{Members: []primitive.ObjectID{alice.ID, bob.ID, carol.ID}, UpdatedAt: time.Now()})
	svc := NewInboxService(fakeChatRepo{s}, testResolver, zap.NewNop())

	byBob, err := svc.List(context.Background(), bob.ID.Hex())
	require.NoError(t, err)
	require.Len(t, byBob, 1)
	assert.Equal(t, "alice & carol", byBob[0].Name)

	byCarol, err := svc.List(context.Background(), carol.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "alice & bob", byCarol[0].Name)
}

func TestInbox_InvalidUser(t *testing.T) {
	svc := NewInboxService(fakeChatRepo{newStore()}, testResolver, zap.NewNop())

	_, err := svc.List(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrInvalidInput)

	inbox, err := svc.List(context.Background(), primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestSortByActivity_TiesBrokenByID(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	first := primitive.NewObjectIDFromTimestamp(at.Add(-time.Hour))
	second := primitive.NewObjectIDFromTimestamp(at)
	newer := primitive.NewObjectID()

	chats := []models.ChatDetails{
		{Chat: models.Chat{ID: second}, LastActivity: at},
		{Chat: models.Chat{ID: newer, UpdatedAt: at.Add(time.Minute)}},
		{Chat: models.Chat{ID: first}, LastActivity: at},
	}
	SortByActivity(chats)

	assert.Equal(t, newer, chats[0].ID)
	assert.Equal(t, first, chats[1].ID)
	assert.Equal(t, second, chats[2].ID)
}
