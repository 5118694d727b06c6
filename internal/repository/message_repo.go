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

type MessageRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*models.Message, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoMessageRepo struct {
	col *mongo.Collection
}

func NewMongoMessageRepo(db *mongo.Database, collection string) MessageRepository {
	return &mongoMessageRepo{col: db.Collection(collection)}
}

func (r *mongoMessageRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("group_created_idx"),
	})
	if err != nil {
		return fmt.Errorf("create messages index: %w", err)
	}
	return nil
}

func (r *mongoMessageRepo) Create(ctx context.Context, m *models.Message) error {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *mongoMessageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *mongoMessageRepo) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*models.Message, error) {
	update := bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m models.Message
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&m); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *mongoMessageRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
