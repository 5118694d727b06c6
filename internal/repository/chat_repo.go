package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatUpdate holds the mutable chat fields. Nil fields are left unchanged.
type ChatUpdate struct {
	Name  *string
	Bio   *string
	Photo *string
}

func (u ChatUpdate) Empty() bool {
	return u.Name == nil && u.Bio == nil && u.Photo == nil
}

type ChatRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, c *models.Chat) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	FindGroup(ctx context.Context, name string, members []primitive.ObjectID) (*models.Chat, error)
	ListForMember(ctx context.Context, userID primitive.ObjectID) ([]models.ChatDetails, error)
	Update(ctx context.Context, id primitive.ObjectID, upd ChatUpdate) (*models.Chat, error)
	DeleteWithMessages(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type mongoChatRepo struct {
	client   *mongo.Client
	chats    *mongo.Collection
	users    *mongo.Collection
	messages *mongo.Collection
}

// NewMongoChatRepo builds the chat repository. Chat deletion cascades into the
// message collection and the inbox joins users and messages, so all three
// collection names are required.
func NewMongoChatRepo(db *mongo.Database, chatColl, userColl, messageColl string) ChatRepository {
	return &mongoChatRepo{
		client:   db.Client(),
		chats:    db.Collection(chatColl),
		users:    db.Collection(userColl),
		messages: db.Collection(messageColl),
	}
}

func (r *mongoChatRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.chats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("members_idx"),
		},
		{
			// one direct chat per unordered pair of members
			Keys: bson.D{{Key: "pairKey", Value: 1}},
			Options: options.Index().
				SetName("direct_pair_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isDirect": true}),
		},
	})
	if err != nil {
		return fmt.Errorf("create chat indexes: %w", err)
	}
	return nil
}

func (r *mongoChatRepo) Create(ctx context.Context, c *models.Chat) error {
	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Admins == nil {
		c.Admins = []primitive.ObjectID{}
	}
	if _, err := r.chats.InsertOne(ctx, c); err != nil {
		return translate(err)
	}
	return nil
}

func (r *mongoChatRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindDirect looks up the direct chat whose member set is exactly {a, b}.
func (r *mongoChatRepo) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{
		"isDirect": true,
		"members":  bson.M{"$all": bson.A{a, b}, "$size": 2},
	})
}

// FindGroup looks up a non-direct chat with the given name and exactly the given members.
func (r *mongoChatRepo) FindGroup(ctx context.Context, name string, members []primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{
		"isDirect": false,
		"name":     name,
		"members":  bson.M{"$all": members, "$size": len(members)},
	})
}

func (r *mongoChatRepo) findOne(ctx context.Context, filter bson.M) (*models.Chat, error) {
	var c models.Chat
	if err := r.chats.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListForMember returns every chat userID belongs to joined with its member
// records and its messages, newest message first. lastActivity is the newest
// message time or, for chats without messages, updatedAt.
func (r *mongoChatRepo) ListForMember(ctx context.Context, userID primitive.ObjectID) ([]models.ChatDetails, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"members": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.users.Name(),
			"localField":   "members",
			"foreignField": "_id",
			"as":           "memberDetails",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.messages.Name(),
			"localField":   "_id",
			"foreignField": "groupId",
			"as":           "messages",
			"pipeline":     bson.A{bson.M{"$sort": bson.M{"createdAt": -1}}},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"lastActivity": bson.M{"$ifNull": bson.A{bson.M{"$max": "$messages.createdAt"}, "$updatedAt"}},
		}}},
		{{Key: "$project", Value: bson.M{"memberDetails.password": 0}}},
	}

	cur, err := r.chats.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []models.ChatDetails{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoChatRepo) Update(ctx context.Context, id primitive.ObjectID, upd ChatUpdate) (*models.Chat, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Photo != nil {
		set["photo"] = *upd.Photo
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Chat
	if err := r.chats.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// DeleteWithMessages removes the chat and all of its messages in one
// transaction and returns the number of messages removed.
func (r *mongoChatRepo) DeleteWithMessages(ctx context.Context, id primitive.ObjectID) (int64, error) {
	sess, err := r.client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		msgs, err := r.messages.DeleteMany(sc, bson.M{"groupId": id})
		if err != nil {
			return nil, err
		}
		chat, err := r.chats.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if chat.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		return msgs.DeletedCount, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}
