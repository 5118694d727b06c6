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

// UserUpdate holds the mutable profile fields. Nil fields are left unchanged.
type UserUpdate struct {
	Username *string
	Bio      *string
	Photo    *string
}

type UserRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, upd UserUpdate) (*models.User, error)
	SetContacts(ctx context.Context, id primitive.ObjectID, contacts []primitive.ObjectID) (*models.User, error)
	ListUsernames(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database, collection string) UserRepository {
	return &mongoUserRepo{col: db.Collection(collection)}
}

func (r *mongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	return nil
}

func (r *mongoUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Contacts == nil {
		u.Contacts = []primitive.ObjectID{}
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *mongoUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetMany returns the users with the given ids in the order the ids are listed.
// Unknown ids are skipped.
func (r *mongoUserRepo) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var found []models.User
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	return OrderUsers(ids, found), nil
}

func (r *mongoUserRepo) Update(ctx context.Context, id primitive.ObjectID, upd UserUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Photo != nil {
		set["photo"] = *upd.Photo
	}
	return r.findOneAndSet(ctx, id, set)
}

func (r *mongoUserRepo) SetContacts(ctx context.Context, id primitive.ObjectID, contacts []primitive.ObjectID) (*models.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"contacts": contacts, "updatedAt": time.Now().UTC()})
}

func (r *mongoUserRepo) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *mongoUserRepo) ListUsernames(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"username": 1, "photo": 1}).
		SetSort(bson.D{{Key: "username", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// OrderUsers arranges users to follow ids. Ids with no matching user are skipped.
func OrderUsers(ids []primitive.ObjectID, users []models.User) []models.User {
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out
}
