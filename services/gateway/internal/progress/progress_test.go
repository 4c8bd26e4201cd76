package progress

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/pkg/navigation"
	"github.com/waste3d/learnhub/services/gateway/internal/session"
)

func setup(t *testing.T) (*Tracker, *session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTracker(rdb, time.Hour), session.NewStore(rdb, time.Hour), mr
}

func TestLessonState(t *testing.T) {
	assert.False(t, LessonState{}.Completed())
	assert.True(t, LessonState{LocallyMarked: true}.Completed())
	assert.False(t, LessonState{LocallyMarked: true}.Saved())
	assert.True(t, LessonState{ServerCompleted: true}.Saved())
}

func TestTracker_MarkIsIdempotentAndScoped(t *testing.T) {
	tracker, store, mr := setup(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "tok", course.User{ID: 1})
	require.NoError(t, err)

	require.NoError(t, tracker.Mark(ctx, sess, 10, 1, 2))
	require.NoError(t, tracker.Mark(ctx, sess, 10, 1, 2))
	require.NoError(t, tracker.Mark(ctx, sess, 11, 5, 6))

	marks, err := tracker.Marks(ctx, sess.ID, 10)
	require.NoError(t, err)
	assert.Len(t, marks, 1)
	assert.True(t, marks.Has(1, 2))
	assert.False(t, marks.Has(5, 6), "marks are per course")

	ttl := mr.TTL("session:" + sess.ID + ":marks:10")
	assert.True(t, ttl > 0 && ttl <= time.Hour, "marks expire with the session, got %s", ttl)

	other, err := store.Create(ctx, "tok2", course.User{ID: 1})
	require.NoError(t, err)
	marks, err = tracker.Marks(ctx, other.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, marks, "marks are per session")
}

func TestTracker_Clear(t *testing.T) {
	tracker, store, _ := setup(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "tok", course.User{ID: 1})
	require.NoError(t, err)
	require.NoError(t, tracker.Mark(ctx, sess, 10, 1, 2))
	require.NoError(t, tracker.Mark(ctx, sess, 11, 5, 6))

	require.NoError(t, tracker.Clear(ctx, sess.ID))
	for _, courseID := range []course.ID{10, 11} {
		marks, err := tracker.Marks(ctx, sess.ID, courseID)
		require.NoError(t, err)
		assert.Empty(t, marks)
	}

	_, err = store.Get(ctx, sess.ID)
	assert.NoError(t, err, "clearing marks keeps the session")
	assert.NoError(t, tracker.Clear(ctx, "unknown"))
}

func TestMarks_DrivesNavigation(t *testing.T) {
	c := &course.Course{Modules: []course.Module{
		{ID: 1, Lessons: []course.Lesson{{ID: 1, Completed: true}, {ID: 2}, {ID: 3}}},
	}}
	marks := Marks{member(1, 2): {}}

	next, ok := navigation.NextIncomplete(c, marks.Done)
	require.True(t, ok)
	assert.Equal(t, course.ID(3), next.Lesson.ID)

	s := navigation.Summarize(c, marks.Done)
	assert.Equal(t, navigation.Summary{Completed: 2, Total: 3, Percent: 66}, s)

	st := marks.State(1, &c.Modules[0].Lessons[1])
	assert.Equal(t, LessonState{LocallyMarked: true}, st)
}
