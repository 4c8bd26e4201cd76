// Package session keeps logged-in users in Redis. The browser only holds the
// session id; the catalog access token never leaves the gateway.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/waste3d/learnhub/pkg/course"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      course.User `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AccessToken returns the catalog bearer token. A nil session has none.
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// ExpiresAt is when the session and everything keyed under it disappear.
func (s *Session) ExpiresAt(ttl time.Duration) time.Time {
	return s.CreatedAt.Add(ttl)
}

func Key(id string) string {
	return "session:" + id
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, now: time.Now}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) Create(ctx context.Context, token string, user course.User) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, Key(sess.ID), data, s.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	val, err := s.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, Key(id)).Err()
}
