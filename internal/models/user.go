package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Username  string               `bson:"username"`
	Password  string               `bson:"password"`
	Bio       string               `bson:"bio"`
	Photo     *string              `bson:"photo"`
	Contacts  []primitive.ObjectID `bson:"contacts"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}
