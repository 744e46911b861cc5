package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/prof-ratings/api"
	"github.com/sahilchouksey/prof-ratings/database/dbtest"
	"github.com/sahilchouksey/prof-ratings/services/search"
	"github.com/sahilchouksey/prof-ratings/utils/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, dbtest.Fixture) {
	t.Helper()
	store := dbtest.NewStore(t)
	f := dbtest.Seed(t, store)
	app := api.NewAPIServer(":0", zap.NewNop()).GetEngine()
	SetupRoutes(app, Deps{
		Store:    store,
		Sessions: search.NewMemorySessionStore(0),
		Logger:   zap.NewNop(),
		Security: middleware.SecurityConfig{
			AllowedOrigins:   "http://localhost:3000",
			DisableAccessLog: true,
		},
	})
	return app, f
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthAndTags(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := call(t, app, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := call(t, app, http.MethodGet, "/api/v1/tags", nil)
	require.Equal(t, http.StatusOK, status)
	tags := decode[struct {
		Tags    []string `json:"tags"`
		MaxTags int      `json:"max_tags"`
	}](t, env)
	assert.Len(t, tags.Tags, 20)
	assert.Equal(t, 3, tags.MaxTags)

	status, env = call(t, app, http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUniversityRoutes(t *testing.T) {
	app, f := newTestApp(t)

	status, env := call(t, app, http.MethodGet, "/api/v1/universities?search=FLOR", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(2), env.Pagination.Total)

	status, _ = call(t, app, http.MethodGet, "/api/v1/universities/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/universities/999", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/universities/%d", f.Florida.ID), nil)
	require.Equal(t, http.StatusOK, status)
	u := decode[struct {
		Name    string `json:"name"`
		Courses []struct {
			Code string `json:"course_code"`
		} `json:"courses"`
	}](t, env)
	assert.Equal(t, "Florida University", u.Name)
	assert.Len(t, u.Courses, 2)

	status, env = call(t, app, http.MethodPost, "/api/v1/universities", map[string]any{"name": "FU"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Fields, "name")
	assert.Contains(t, env.Error.Fields, "location")

	status, _ = call(t, app, http.MethodPost, "/api/v1/universities", map[string]any{"name": "Florida University", "location": "Miami, FL"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, app, http.MethodPost, "/api/v1/universities", map[string]any{
		"name": "Bloomfield College", "location": "Bloomfield, NJ", "courses": []string{"CS 101"},
	})
	assert.Equal(t, http.StatusCreated, status)

	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/universities/%d/professors?search=smith", f.Florida.ID), nil)
	require.Equal(t, http.StatusOK, status)
	results := decode[struct {
		Results []struct {
			DisplayName string `json:"display_name"`
			Aggregate   struct {
				OverallRating string `json:"overall_rating"`
			} `json:"aggregate"`
		} `json:"results"`
	}](t, env)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "Smith, Jane", results.Results[0].DisplayName)
	assert.Equal(t, "N/A", results.Results[0].Aggregate.OverallRating)
}

func TestReviewRoutes(t *testing.T) {
	app, f := newTestApp(t)
	reviews := fmt.Sprintf("/api/v1/professors/%d/reviews", f.Smith.ID)

	status, env := call(t, app, http.MethodPost, reviews, map[string]any{"rating": 4, "difficulty": 2})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Please select a course", env.Error.Fields["course_id"])

	status, env = call(t, app, http.MethodPost, reviews, map[string]any{
		"course_id": f.COP3530.ID, "rating": 4, "difficulty": 2,
		"tags": []string{"Caring", "Respected", "Hilarious", "Inspirational"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Select up to 3 tags", env.Error.Fields["tags"])

	status, env = call(t, app, http.MethodPost, reviews, map[string]any{"course_id": f.OtherCourse.ID, "rating": 4, "difficulty": 2})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Fields, "course_id")

	status, _ = call(t, app, http.MethodPost, "/api/v1/professors/999/reviews", map[string]any{"course_id": f.COP3530.ID, "rating": 4, "difficulty": 2})
	assert.Equal(t, http.StatusNotFound, status)

	for _, body := range []map[string]any{
		{"course_id": f.COP3530.ID, "rating": 5, "difficulty": 3, "would_take_again": true, "tags": []string{"Caring"}},
		{"course_id": f.MAC2311.ID, "rating": 2, "difficulty": 4, "would_take_again": false, "tags": []string{"Tough Grader"}, "text_review": "<i>Hard</i>"},
	} {
		status, _ = call(t, app, http.MethodPost, reviews, body)
		require.Equal(t, http.StatusCreated, status)
	}

	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/professors/%d?course=%s", f.Smith.ID, url.QueryEscape("MAC 2311")), nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[struct {
		University       *struct{ Name string } `json:"university"`
		UniversityLoaded bool                   `json:"university_loaded"`
		Aggregate        struct {
			OverallRating  string   `json:"overall_rating"`
			WouldTakeAgain string   `json:"would_take_again_percentage"`
			ReviewCount    int      `json:"review_count"`
			TopTags        []string `json:"top_tags"`
		} `json:"aggregate"`
		CourseOptions []string `json:"course_options"`
		Reviews       []struct {
			CourseCode string `json:"course_code"`
			Body       string `json:"text_review"`
		} `json:"reviews"`
	}](t, env)
	assert.True(t, view.UniversityLoaded)
	assert.Equal(t, "3.5", view.Aggregate.OverallRating)
	assert.Equal(t, "50", view.Aggregate.WouldTakeAgain)
	assert.Equal(t, 2, view.Aggregate.ReviewCount)
	assert.Equal(t, []string{"Caring", "Tough Grader"}, view.Aggregate.TopTags)
	assert.Equal(t, []string{"All courses", "COP 3530", "MAC 2311"}, view.CourseOptions)
	require.Len(t, view.Reviews, 1)
	assert.Equal(t, "MAC 2311", view.Reviews[0].CourseCode)
	assert.Equal(t, "Hard", view.Reviews[0].Body)

	status, _ = call(t, app, http.MethodGet, "/api/v1/professors/999", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, app, http.MethodGet, fmt.Sprintf("/api/v1/professors/%d/courses", f.Smith.ID), nil)
	require.Equal(t, http.StatusOK, status)
	courses := decode[[]struct {
		Code string `json:"course_code"`
	}](t, env)
	assert.Len(t, courses, 2)
}

func TestProfessorRoutes(t *testing.T) {
	app, f := newTestApp(t)

	status, env := call(t, app, http.MethodPost, "/api/v1/professors", map[string]any{"university_id": f.Florida.ID})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Fields, "first_name")
	assert.Contains(t, env.Error.Fields, "last_name")

	status, _ = call(t, app, http.MethodPost, "/api/v1/professors", map[string]any{"university_id": 999, "first_name": "A", "last_name": "B"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, http.MethodPost, "/api/v1/professors", map[string]any{"university_id": f.Florida.ID, "first_name": "Jane", "last_name": "Smith"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, app, http.MethodPost, "/api/v1/professors", map[string]any{"university_id": f.Florida.ID, "first_name": "Maria", "last_name": "Lopez"})
	assert.Equal(t, http.StatusCreated, status)
}

type sessionBody struct {
	ID    string       `json:"session_id"`
	Phase search.Phase `json:"phase"`
	Stale bool         `json:"stale"`
	State search.State `json:"state"`
}

func TestSearchSessionRoutes(t *testing.T) {
	app, f := newTestApp(t)

	status, env := call(t, app, http.MethodPost, "/api/v1/search/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	session := decode[sessionBody](t, env)
	base := "/api/v1/search/sessions/" + session.ID

	status, env = call(t, app, http.MethodPost, base+"/person/pick", map[string]any{"id": f.Smith.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NO_INSTITUTION", env.Error.Code)

	status, env = call(t, app, http.MethodPost, base+"/institution", map[string]any{"text": "Flor", "seq": 1})
	require.Equal(t, http.StatusOK, status)
	session = decode[sessionBody](t, env)
	assert.Len(t, session.State.InstitutionSuggestions, 2)

	status, env = call(t, app, http.MethodPost, base+"/institution/pick", map[string]any{"id": 999})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "UNKNOWN_SUGGESTION", env.Error.Code)

	status, _ = call(t, app, http.MethodPost, base+"/institution/pick", map[string]any{"id": f.Florida.ID})
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, app, http.MethodPost, base+"/person", map[string]any{"text": "jane", "seq": 1})
	require.Equal(t, http.StatusOK, status)
	session = decode[sessionBody](t, env)
	require.Len(t, session.State.PersonSuggestions, 1)
	assert.Equal(t, search.PhaseInstitutionChosen, session.Phase)

	status, _ = call(t, app, http.MethodPost, base+"/person/pick", map[string]any{"id": f.Smith.ID})
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status)
	submitted := decode[struct {
		Navigation *search.Navigation `json:"navigation"`
	}](t, env)
	require.NotNil(t, submitted.Navigation)
	assert.Equal(t, fmt.Sprintf("/professor/%d", f.Smith.ID), submitted.Navigation.Path)

	status, env = call(t, app, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, search.PhaseNoInstitution, decode[sessionBody](t, env).Phase)

	status, env = call(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[struct {
		Navigation *search.Navigation `json:"navigation"`
	}](t, env).Navigation)

	status, _ = call(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, app, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSearchRateLimit(t *testing.T) {
	store := dbtest.NewStore(t)
	app := api.NewAPIServer(":0", zap.NewNop()).GetEngine()
	SetupRoutes(app, Deps{
		Store:    store,
		Sessions: search.NewMemorySessionStore(0),
		Security: middleware.SecurityConfig{
			RateLimitRequests: 1,
			RateLimitWindow:   time.Minute,
			SearchRateLimit:   5,
			DisableAccessLog:  true,
		},
	})

	// search requests do not use up the global budget
	for i := 0; i < 3; i++ {
		status, _ := call(t, app, http.MethodPost, "/api/v1/search/sessions", nil)
		require.Equal(t, http.StatusCreated, status)
	}

	status, _ := call(t, app, http.MethodGet, "/api/v1/tags", nil)
	assert.Equal(t, http.StatusOK, status)
	status, env := call(t, app, http.MethodGet, "/api/v1/tags", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)
}
