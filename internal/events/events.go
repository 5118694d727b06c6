// Package events defines the notifications emitted when messages change and
// the publishers that deliver them.
package events

import (
	"context"
	"encoding/json"

	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
)

const (
	NameMessageCreated = "newMessage"
	NameMessageUpdated = "messageUpdated"
	NameMessageDeleted = "messageDeleted"
)

// Event is one of MessageCreated, MessageUpdated or MessageDeleted.
type Event interface {
	Name() string
	// Key is the id of the chat the event belongs to.
	Key() string
	Payload() any

	event()
}

type MessageCreated struct {
	Message domain.Message
}

func (MessageCreated) Name() string   { return NameMessageCreated }
func (e MessageCreated) Key() string  { return e.Message.ChatID }
func (e MessageCreated) Payload() any { return e.Message }
func (MessageCreated) event()         {}

type MessageUpdated struct {
	Message domain.Message
}

func (MessageUpdated) Name() string   { return NameMessageUpdated }
func (e MessageUpdated) Key() string  { return e.Message.ChatID }
func (e MessageUpdated) Payload() any { return e.Message }
func (MessageUpdated) event()         {}

type MessageDeleted struct {
	MessageID string `json:"id"`
	ChatID    string `json:"groupId"`
}

func (MessageDeleted) Name() string   { return NameMessageDeleted }
func (e MessageDeleted) Key() string  { return e.ChatID }
func (e MessageDeleted) Payload() any { return e }
func (MessageDeleted) event()         {}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Envelope is the wire form shared by every sink.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(Envelope{Event: e.Name(), Payload: e.Payload()})
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
