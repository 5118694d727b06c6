package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence records which users hold an open socket. Keys:
//   - <prefix>:conn:<userID>      set of socket ids
//   - <prefix>:presence:<userID>  json {status,last_seen}
type Presence struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type Status struct {
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`
}

type presenceRecord struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

func NewPresence(r *redis.Client, prefix string, ttl time.Duration) *Presence {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Presence{client: r, prefix: prefix, ttl: ttl}
}

func (p *Presence) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", p.prefix, userID)
}

func (p *Presence) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", p.prefix, userID)
}

// Connect registers socketID for the user and marks the user online until the
// ttl runs out.
func (p *Presence) Connect(ctx context.Context, userID, socketID string) error {
	pipe := p.client.TxPipeline()
	pipe.SAdd(ctx, p.connKey(userID), socketID)
	pipe.Expire(ctx, p.connKey(userID), p.ttl)
	pipe.Set(ctx, p.presenceKey(userID), p.record("online"), p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Touch extends the ttl of an online user.
func (p *Presence) Touch(ctx context.Context, userID string) error {
	pipe := p.client.TxPipeline()
	pipe.Expire(ctx, p.connKey(userID), p.ttl)
	pipe.Set(ctx, p.presenceKey(userID), p.record("online"), p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Disconnect removes socketID. The user goes offline once no socket is left.
func (p *Presence) Disconnect(ctx context.Context, userID, socketID string) error {
	key := p.connKey(userID)
	if err := p.client.SRem(ctx, key, socketID).Err(); err != nil {
		return err
	}
	left, err := p.client.SCard(ctx, key).Result()
	if err != nil {
		return err
	}
	if left > 0 {
		return nil
	}
	return p.client.Set(ctx, p.presenceKey(userID), p.record("offline"), 0).Err()
}

func (p *Presence) Get(ctx context.Context, userID string) (Status, error) {
	b, err := p.client.Get(ctx, p.presenceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	var rec presenceRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return Status{}, fmt.Errorf("decode presence: %w", err)
	}
	return Status{Online: rec.Status == "online", LastSeen: time.Unix(rec.LastSeen, 0).UTC()}, nil
}

func (p *Presence) record(status string) []byte {
	b, _ := json.Marshal(presenceRecord{Status: status, LastSeen: time.Now().Unix()})
	return b
}
