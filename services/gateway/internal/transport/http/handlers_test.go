package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/learnhub/services/gateway/internal/client"
	"github.com/waste3d/learnhub/services/gateway/internal/middleware"
	"github.com/waste3d/learnhub/services/gateway/internal/progress"
	"github.com/waste3d/learnhub/services/gateway/internal/render"
	"github.com/waste3d/learnhub/services/gateway/internal/session"
)

// Modules and lessons are deliberately out of id order.
const courseJSON = `{
	"id": "7",
	"title": "Go for backend developers",
	"description": "Services, storage and concurrency in Go",
	"instructor": {"id": 2, "name": "Ivan", "email": "ivan@example.com"},
	"modules": [
		{"id": 2, "title": "Storage", "position": 1, "lessons": [
			{"id": 21, "title": "Postgres", "content": "# Postgres\n\nUse **gorm**.", "position": 1}
		]},
		{"id": 1, "title": "Basics", "position": 2, "lessons": [
			{"id": 12, "title": "Slices", "content": "Slices *grow*.", "position": 1},
			{"id": 11, "title": "Hello", "content": "Hello", "position": 2, "completed": true}
		]}
	]
}`

type fakeCatalog struct {
	mu       sync.Mutex
	calls    []string
	tokens   []string
	queries  []string
	failGets bool
}

func (f *fakeCatalog) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.tokens = append(f.tokens, r.Header.Get("Authorization"))
	f.queries = append(f.queries, r.URL.RawQuery)
}

func (f *fakeCatalog) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeCatalog) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		return ""
	}
	return f.tokens[len(f.tokens)-1]
}

func (f *fakeCatalog) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return nil
	}
	q, _ := url.ParseQuery(f.queries[len(f.queries)-1])
	return q
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeCatalog) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var body struct{ Email string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body.Email {
		case "ann@example.com":
			writeJSON(w, http.StatusOK, `{"access_token":"tok-ann","user":{"id":5,"name":"Ann","email":"ann@example.com","role":"student"}}`)
		case "ivan@example.com":
			writeJSON(w, http.StatusOK, `{"access_token":"tok-ivan","user":{"id":2,"name":"Ivan","email":"ivan@example.com","role":"instructor"}}`)
		default:
			writeJSON(w, http.StatusUnauthorized, `{"error":"invalid email or password"}`)
		}
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, `{"message":"ok"}`)
	})
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusConflict, `{"error":"user already exists"}`)
	})
	mux.HandleFunc("GET /courses", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, `{"courses":[`+courseJSON+`],"total":1}`)
	})
	mux.HandleFunc("GET /courses/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		fail := f.failGets
		f.mu.Unlock()
		switch {
		case fail:
			writeJSON(w, http.StatusServiceUnavailable, `{"error":"down"}`)
		case r.PathValue("id") == "7":
			writeJSON(w, http.StatusOK, courseJSON)
		default:
			writeJSON(w, http.StatusNotFound, `{"error":"course not found"}`)
		}
	})
	mux.HandleFunc("POST /courses", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusCreated, `{"id":8,"title":"New course","description":"d","instructor":{"id":2}}`)
	})
	mux.HandleFunc("DELETE /modules/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /lessons", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusCreated, `{"id":13,"moduleId":1,"title":"Maps"}`)
	})
	mux.HandleFunc("POST /enrollments", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusCreated, `{"id":1,"courseId":7,"studentId":5}`)
	})
	mux.HandleFunc("GET /enrollments", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, `[{"id":1,"courseId":7,"studentId":5}]`)
	})
	return mux
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) Check(ctx context.Context) error { return f(ctx) }

type testEnv struct {
	router  *gin.Engine
	catalog *fakeCatalog
	ready   error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fc := &fakeCatalog{}
	srv := httptest.NewServer(fc.handler())
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{catalog: fc}
	rest := client.NewRest(srv.URL, 2*time.Second, 0)
	sessions := session.NewStore(rdb, time.Hour)
	tracker := progress.NewTracker(rdb, time.Hour)
	cookies := middleware.NewSessionCookies("0123456789abcdef0123456789abcdef", time.Hour, false)

	env.router = NewRouter(Handlers{
		Auth:        NewAuthHandler(client.NewAuthClient(rest), sessions, tracker, cookies),
		Courses:     NewCourseHandler(rest, tracker, render.NewMarkdown()),
		Authoring:   NewAuthoringHandler(rest),
		Enrollments: NewEnrollmentHandler(rest),
		Health: NewHealthHandler(map[string]ReadinessChecker{
			"catalog": checkFunc(func(context.Context) error { return env.ready }),
		}),
	}, RouterDeps{
		Sessions: sessions,
		Cookies:  cookies,
		Limiter:  middleware.NewRateLimiter(rdb),
		Origins:  []string{"http://localhost:3001"},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuth_LoginSessionAndLogout(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "nobody@example.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := env.login(t, "ann@example.com")

	w = env.do(t, http.MethodGet, "/api/v1/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann", decode(t, w)["user"].(map[string]any)["name"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.catalog.called("POST /auth/logout"))
	assert.Equal(t, "Bearer tok-ann", env.catalog.lastToken())

	w = env.do(t, http.MethodGet, "/api/v1/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "session is gone after logout")
}

func TestAuth_LoginRedirectDependsOnRole(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ivan@example.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/instructor/courses", decode(t, w)["redirect"])
}

func TestAuth_SignupConflictIsPassedThrough(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user already exists", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret1", "role": "admin",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLessonPage_NeighboursFollowSortedOrder(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "ann@example.com")

	w := env.do(t, http.MethodGet, "/api/v1/courses/7/modules/1/lessons/12", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page lessonPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, "Slices", page.Lesson.Title)
	assert.Contains(t, page.Lesson.ContentHTML, "<em>grow</em>")
	require.NotNil(t, page.Previous)
	assert.EqualValues(t, 11, page.Previous.LessonID)
	assert.Equal(t, "/dashboard/course/7/modules/1/lessons/11", page.Previous.Href)
	require.NotNil(t, page.Next)
	assert.EqualValues(t, 2, page.Next.ModuleID)
	assert.EqualValues(t, 21, page.Next.LessonID)
	assert.Equal(t, 2, page.Index)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, "/dashboard/course/7/modules", page.Back)
	require.Len(t, page.Breadcrumbs, 4)
	assert.Equal(t, "Basics", page.Breadcrumbs[2].Label)
}

func TestLessonPage_Boundaries(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/courses/7/modules/1/lessons/11", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var first lessonPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Nil(t, first.Previous)
	assert.True(t, first.Lesson.State.ServerCompleted)
	assert.True(t, first.Lesson.State.Saved)

	w = env.do(t, http.MethodGet, "/api/v1/courses/7/modules/2/lessons/21", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var last lessonPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &last))
	assert.Nil(t, last.Next)
	assert.Contains(t, last.Lesson.ContentHTML, "<h1")
}

func TestLessonPage_InstructorLinks(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "ivan@example.com")

	w := env.do(t, http.MethodGet, "/api/v1/courses/7/modules/1/lessons/12", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var page lessonPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, "/instructor/course/7/modules/2/lessons/21", page.Next.Href)
}

func TestLessonPage_NotFound(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		path   string
		status int
		msg    string
	}{
		{"unknown lesson", "/api/v1/courses/7/modules/1/lessons/99", http.StatusNotFound, "Lesson not found"},
		{"lesson in other module", "/api/v1/courses/7/modules/2/lessons/11", http.StatusNotFound, "Lesson not found"},
		{"unknown module", "/api/v1/courses/7/modules/9/lessons/11", http.StatusNotFound, "Module not found"},
		{"unknown course", "/api/v1/courses/99/modules/1/lessons/11", http.StatusNotFound, "Course not found"},
		{"malformed id", "/api/v1/courses/7/modules/abc/lessons/11", http.StatusBadRequest, "invalid moduleId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tc.path, nil, nil)
			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tc.msg, body["error"])
			if tc.status == http.StatusNotFound && tc.msg != "Course not found" {
				assert.Equal(t, "/dashboard/course/7/modules", body["back"])
			}
		})
	}
}

func TestLessonPage_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.mu.Lock()
	env.catalog.failGets = true
	env.catalog.mu.Unlock()

	w := env.do(t, http.MethodGet, "/api/v1/courses/7/modules/1/lessons/11", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Course service is unavailable, try again later", decode(t, w)["error"])
}

func TestComplete_MarksLocallyUntilLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "ann@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/courses/7/modules/1/lessons/12/complete", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/courses/7/modules/1/lessons/12/complete", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	state := body["state"].(map[string]any)
	assert.Equal(t, true, state["locallyMarked"])
	assert.Equal(t, true, state["completed"])
	assert.Equal(t, false, state["saved"])
	assert.EqualValues(t, 2, body["summary"].(map[string]any)["completed"])

	w = env.do(t, http.MethodGet, "/api/v1/courses/7/modules", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Modules []moduleView `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Modules, 2)
	basics := view.Modules[1]
	assert.True(t, basics.Lessons[0].State.LocallyMarked, "lesson 12")
	assert.True(t, basics.Lessons[1].State.Saved, "lesson 11")

	w = env.do(t, http.MethodPost, "/api/v1/courses/7/modules/1/lessons/99/complete", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie).Code)
	cookie = env.login(t, "ann@example.com")
	w = env.do(t, http.MethodGet, "/api/v1/courses/7", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 1, body["summary"].(map[string]any)["completed"], "marks do not survive logout")
	assert.EqualValues(t, 21, body["continue"].(map[string]any)["lessonId"])
}

func TestComplete_InstructorForbidden(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "ivan@example.com")
	w := env.do(t, http.MethodPost, "/api/v1/courses/7/modules/1/lessons/12/complete", nil, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCourses_ListAndCourseHeaders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/courses?search=go", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])
	first := body["courses"].([]any)[0].(map[string]any)
	assert.Equal(t, "/dashboard/course/7", first["href"])

	w = env.do(t, http.MethodGet, "/api/v1/courses/7", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 2, body["moduleCount"])
	assert.EqualValues(t, 3, body["lessonCount"])
	assert.EqualValues(t, 21, body["continue"].(map[string]any)["lessonId"], "first incomplete in catalog order")
}

func TestCourses_MineListsInstructorsOwnCourses(t *testing.T) {
	env := newTestEnv(t)
	student := env.login(t, "ann@example.com")
	instructor := env.login(t, "ivan@example.com")

	w := env.do(t, http.MethodGet, "/api/v1/courses?mine=true&search=go", nil, instructor)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	q := env.catalog.lastQuery()
	assert.Equal(t, "2", q.Get("instructorId"), "session user id is sent, not a client-supplied one")
	assert.Equal(t, "go", q.Get("search"))
	first := decode(t, w)["courses"].([]any)[0].(map[string]any)
	assert.Equal(t, "/instructor/course/7", first["href"])

	w = env.do(t, http.MethodGet, "/api/v1/courses?mine=true&instructorId=9", nil, instructor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", env.catalog.lastQuery().Get("instructorId"))

	w = env.do(t, http.MethodGet, "/api/v1/courses", nil, instructor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.catalog.lastQuery().Get("instructorId"), "without mine the whole catalog is listed")

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/courses?mine=true", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/v1/courses?mine=true", nil, student).Code)
}

func TestAuthoring_RequiresInstructor(t *testing.T) {
	env := newTestEnv(t)
	student := env.login(t, "ann@example.com")
	instructor := env.login(t, "ivan@example.com")

	in := map[string]string{"title": "New course", "description": "A description that is long enough"}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/v1/courses", in, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/courses", in, student).Code)

	w := env.do(t, http.MethodPost, "/api/v1/courses", map[string]string{"title": "Go", "description": "short"}, instructor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/courses", in, instructor)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/instructor/course/8", decode(t, w)["href"])
	assert.Equal(t, "Bearer tok-ivan", env.catalog.lastToken())
}

func TestAuthoring_NestedIDsMustBelongToCourse(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "ivan@example.com")

	w := env.do(t, http.MethodDelete, "/api/v1/courses/7/modules/9", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.catalog.called("DELETE /modules/9"))

	w = env.do(t, http.MethodDelete, "/api/v1/courses/7/modules/2", nil, cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, env.catalog.called("DELETE /modules/2"))

	w = env.do(t, http.MethodPost, "/api/v1/courses/7/modules/1/lessons", map[string]string{"title": "Maps"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/instructor/course/7/modules/1/lessons/13", decode(t, w)["href"])
}

func TestEnrollments(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "ann@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/enrollments", map[string]any{"courseId": "7"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/dashboard/course/7", decode(t, w)["href"])

	w = env.do(t, http.MethodGet, "/api/v1/enrollments", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["enrollments"], 1)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readyz", nil, nil).Code)

	env.ready = errors.New("catalog is NOT_SERVING")
	w := env.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "NOT_SERVING"))

	w = env.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "learnhub_gateway_http_requests_total")
}
