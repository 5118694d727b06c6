package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is stored in the groups collection and covers both direct messages
// (IsDirect, two members, no admins) and multi-member groups.
type Chat struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Name      *string              `bson:"name"`
	Photo     *string              `bson:"photo"`
	Bio       string               `bson:"bio"`
	IsDirect  bool                 `bson:"isDirect"`
	Members   []primitive.ObjectID `bson:"members"`
	Admins    []primitive.ObjectID `bson:"admins"`
	PairKey   *string              `bson:"pairKey,omitempty"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

// IsAdmin reports whether id is in the chat's admin set.
func (c *Chat) IsAdmin(id primitive.ObjectID) bool {
	for _, a := range c.Admins {
		if a == id {
			return true
		}
	}
	return false
}

func (c *Chat) IsMember(id primitive.ObjectID) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// PairKey is the order independent key of a direct chat between a and b.
func PairKey(a, b primitive.ObjectID) string {
	ids := []string{a.Hex(), b.Hex()}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// ChatDetails is a chat joined with its member records and messages, newest
// message first.
type ChatDetails struct {
	Chat         `bson:",inline"`
	MemberUsers  []User    `bson:"memberDetails"`
	Messages     []Message `bson:"messages,omitempty"`
	LastActivity time.Time `bson:"lastActivity,omitempty"`
}
