// Package progress tracks lessons a student marked complete during a session.
//
// Marks are kept next to the session in Redis and expire with it. They are
// never sent to the catalog, so a mark is visible only until logout.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/gateway/internal/session"

	"github.com/redis/go-redis/v9"
)

// LessonState is the two-tier completion of a lesson.
type LessonState struct {
	ServerCompleted bool `json:"serverCompleted"`
	LocallyMarked   bool `json:"locallyMarked"`
}

func (s LessonState) Completed() bool {
	return s.ServerCompleted || s.LocallyMarked
}

// Saved reports whether the completion is persisted by the catalog.
func (s LessonState) Saved() bool {
	return s.ServerCompleted
}

// Marks is the set of locally marked lessons of one course.
type Marks map[string]struct{}

func member(moduleID, lessonID course.ID) string {
	return fmt.Sprintf("%d:%d", moduleID, lessonID)
}

func (m Marks) Has(moduleID, lessonID course.ID) bool {
	_, ok := m[member(moduleID, lessonID)]
	return ok
}

func (m Marks) Add(moduleID, lessonID course.ID) {
	m[member(moduleID, lessonID)] = struct{}{}
}

func (m Marks) State(moduleID course.ID, l *course.Lesson) LessonState {
	return LessonState{
		ServerCompleted: l.Completed,
		LocallyMarked:   m.Has(moduleID, l.ID),
	}
}

// Done matches navigation.DoneFunc.
func (m Marks) Done(moduleID course.ID, l *course.Lesson) bool {
	return m.State(moduleID, l).Completed()
}

type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTracker takes the session TTL so marks expire together with the session.
func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{client: client, ttl: ttl}
}

func marksKey(sessionID string, courseID course.ID) string {
	return fmt.Sprintf("%s:marks:%d", session.Key(sessionID), courseID)
}

// Mark is idempotent.
func (t *Tracker) Mark(ctx context.Context, sess *session.Session, courseID, moduleID, lessonID course.ID) error {
	key := marksKey(sess.ID, courseID)
	pipe := t.client.TxPipeline()
	pipe.SAdd(ctx, key, member(moduleID, lessonID))
	pipe.ExpireAt(ctx, key, sess.ExpiresAt(t.ttl))
	_, err := pipe.Exec(ctx)
	return err
}

func (t *Tracker) Marks(ctx context.Context, sessionID string, courseID course.ID) (Marks, error) {
	members, err := t.client.SMembers(ctx, marksKey(sessionID, courseID)).Result()
	if err != nil {
		return nil, err
	}
	marks := make(Marks, len(members))
	for _, m := range members {
		marks[m] = struct{}{}
	}
	return marks, nil
}

// Clear drops every mark of the session.
func (t *Tracker) Clear(ctx context.Context, sessionID string) error {
	iter := t.client.Scan(ctx, 0, session.Key(sessionID)+":marks:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return t.client.Del(ctx, keys...).Err()
}
