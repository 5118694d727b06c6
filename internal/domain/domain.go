package domain

import (
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/ident"
	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
)

// User is the public view of an account. The password hash never leaves the
// repository layer.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	Photo     *string   `json:"photo"`
	Contacts  []Member  `json:"contacts,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Member is the embedded form of a user inside chats and contact lists.
type Member struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Photo    *string `json:"photo"`
	Bio      string  `json:"bio,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	PhotoURL  *string   `json:"photoUrl"`
	AuthorID  string    `json:"authorId"`
	ChatID    string    `json:"groupId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Chat is a chat as seen by one viewer: Name and Photo are already resolved.
type Chat struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Photo         string    `json:"photo"`
	Bio           string    `json:"bio"`
	IsDirect      bool      `json:"isDirect"`
	Members       []Member  `json:"members"`
	Admins        []Member  `json:"admins"`
	Messages      []Message `json:"messages"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LastActivity  time.Time `json:"lastActivity,omitempty"`
	CreatedAtDate string    `json:"createdAtDate,omitempty"`
	CreatedAtTime string    `json:"createdAtTime,omitempty"`
}

func NewUser(u *models.User, contacts []models.User) *User {
	out := &User{
		ID:        ident.ToExternal(u.ID),
		Username:  u.Username,
		Bio:       u.Bio,
		Photo:     u.Photo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if contacts != nil {
		out.Contacts = NewMembers(contacts)
	}
	return out
}

func NewMember(u models.User) Member {
	return Member{
		ID:       ident.ToExternal(u.ID),
		Username: u.Username,
		Photo:    u.Photo,
		Bio:      u.Bio,
	}
}

func NewMembers(users []models.User) []Member {
	out := make([]Member, 0, len(users))
	for _, u := range users {
		out = append(out, NewMember(u))
	}
	return out
}

func NewMessage(m *models.Message) Message {
	return Message{
		ID:        ident.ToExternal(m.ID),
		Content:   m.Content,
		PhotoURL:  m.PhotoURL,
		AuthorID:  ident.ToExternal(m.AuthorID),
		ChatID:    ident.ToExternal(m.ChatID),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func NewMessages(msgs []models.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for i := range msgs {
		out = append(out, NewMessage(&msgs[i]))
	}
	return out
}

// NewChat maps a stored chat with its resolved display fields. Members and
// admins are picked out of users in the order the chat stores them.
func NewChat(c *models.Chat, name, photo string, users []models.User, msgs []models.Message) *Chat {
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[ident.ToExternal(u.ID)] = u
	}
	pick := func(ids []string) []Member {
		out := make([]Member, 0, len(ids))
		for _, id := range ids {
			if u, ok := byID[id]; ok {
				out = append(out, NewMember(u))
			}
		}
		return out
	}

	return &Chat{
		ID:        ident.ToExternal(c.ID),
		Name:      name,
		Photo:     photo,
		Bio:       c.Bio,
		IsDirect:  c.IsDirect,
		Members:   pick(ident.ToExternalAll(c.Members)),
		Admins:    pick(ident.ToExternalAll(c.Admins)),
		Messages:  NewMessages(msgs),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
