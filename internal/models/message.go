package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Content   string             `bson:"content"`
	PhotoURL  *string            `bson:"photoUrl"`
	AuthorID  primitive.ObjectID `bson:"authorId"`
	ChatID    primitive.ObjectID `bson:"groupId"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}
