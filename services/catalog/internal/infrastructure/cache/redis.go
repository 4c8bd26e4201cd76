package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/waste3d/learnhub/services/catalog/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	detailTTL = time.Hour
	// Courses are not added often.
	listTTL = 10 * time.Minute

	listGenerationKey = "courses:list:gen"
)

var ErrMiss = errors.New("cache miss")

type CourseList struct {
	Courses []domain.Course
	Total   int64
}

// CourseCache is a read-through cache for course details and list pages.
// List keys embed a generation counter, so bumping it retires every cached
// page at once.
type CourseCache struct {
	client *redis.Client
}

func NewCourseCache(client *redis.Client) *CourseCache {
	return &CourseCache{client: client}
}

func detailKey(id uint) string {
	return fmt.Sprintf("course:detail:%d", id)
}

func (c *CourseCache) GetDetail(ctx context.Context, id uint) (*domain.Course, error) {
	val, err := c.client.Get(ctx, detailKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var course domain.Course
	if err := json.Unmarshal(val, &course); err != nil {
		return nil, ErrMiss
	}
	return &course, nil
}

func (c *CourseCache) SetDetail(ctx context.Context, course *domain.Course) error {
	data, err := json.Marshal(course)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, detailKey(course.ID), data, detailTTL).Err()
}

func (c *CourseCache) DeleteDetail(ctx context.Context, id uint) error {
	return c.client.Del(ctx, detailKey(id)).Err()
}

// listKey encodes the filter as a query string so free-text parts cannot
// collide with the separators.
func (c *CourseCache) listKey(ctx context.Context, f domain.CourseFilter) (string, error) {
	gen, err := c.client.Get(ctx, listGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	q := url.Values{
		"search":     {f.Search},
		"category":   {f.Category},
		"instructor": {strconv.FormatUint(uint64(f.InstructorID), 10)},
		"limit":      {strconv.Itoa(f.Limit)},
		"offset":     {strconv.Itoa(f.Offset)},
	}
	return fmt.Sprintf("courses:list:%d:%s", gen, q.Encode()), nil
}

func (c *CourseCache) GetList(ctx context.Context, f domain.CourseFilter) (*CourseList, error) {
	key, err := c.listKey(ctx, f)
	if err != nil {
		return nil, err
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var list CourseList
	if err := json.Unmarshal(val, &list); err != nil {
		return nil, ErrMiss
	}
	return &list, nil
}

func (c *CourseCache) SetList(ctx context.Context, f domain.CourseFilter, list *CourseList) error {
	key, err := c.listKey(ctx, f)
	if err != nil {
		return err
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, listTTL).Err()
}

// InvalidateLists retires all cached list pages; stale keys expire on their own.
func (c *CourseCache) InvalidateLists(ctx context.Context) error {
	return c.client.Incr(ctx, listGenerationKey).Err()
}

// TokenCache keeps revoked access token ids until the token would have
// expired anyway.
type TokenCache struct {
	client *redis.Client
}

func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

func (c *TokenCache) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, "revoked_token:"+tokenID, 1, ttl).Err()
}

func (c *TokenCache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, "revoked_token:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
