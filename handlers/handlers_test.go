package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflection-garden/events"
	"reflection-garden/services"
	"reflection-garden/testutil"
)

type testServer struct {
	app *fiber.App
	svc *services.Services
	hub *events.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := testutil.NewRepo(t)
	require.NoError(t, services.SeedReferenceData(context.Background(), repo))
	hub := events.NewHub(8, nil)
	t.Cleanup(hub.Close)

	svc := services.New(services.Options{Repo: repo, Publisher: hub})
	app := fiber.New()
	Setup(app, Deps{Services: svc, Hub: hub})
	return &testServer{app: app, svc: svc, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Name", "name-"+userID)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, "GET", "/healthz", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestSecuredRoutesNeedUser(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, "GET", "/s/garden-state", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitReflectionAndWater(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, "POST", "/s/reflections", "u1", map[string]any{
		"content":      "A calm and thoughtful morning",
		"display_mode": "pseudonym",
		"pseudonym":    "Owl",
		"tags":         []string{"calm"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	refl := body["reflection"].(map[string]any)
	assert.Equal(t, "Owl", refl["display_name"])
	state := body["state"].(map[string]any)
	assert.Equal(t, float64(10), state["xp"])
	plantID := body["plant"].(map[string]any)["id"].(string)

	resp, body = s.do(t, "POST", "/s/plants/"+plantID+"/water", "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["grew"])
	assert.Equal(t, float64(1), body["plant"].(map[string]any)["stage"])

	resp, _ = s.do(t, "POST", "/s/plants/"+plantID+"/water", "u2", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/s/plants/missing/water", "u1", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = s.do(t, "POST", "/s/reflections", "u1", map[string]any{"content": "   "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, body = s.do(t, "GET", "/s/garden-state", "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["plants"], 1)
	assert.Len(t, body["badges"], 1)
}

func TestGoalRoutes(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, "POST", "/s/goals", "u1", map[string]any{"title": "Read", "due_date": "2024-05-01"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := body["id"].(string)

	resp, _ = s.do(t, "POST", "/s/goals", "u1", map[string]any{"title": "Read", "due_date": "tomorrow"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, "PUT", "/s/goals/"+id, "u1", map[string]any{"progress": 30})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(30), body["progress"])

	resp, body = s.do(t, "POST", "/s/goals/"+id+"/complete", "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["goal"].(map[string]any)["status"])
	assert.Equal(t, float64(10), body["state"].(map[string]any)["xp"])

	resp, body = s.do(t, "GET", "/s/goals", "u1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["personal"], 1)

	resp, _ = s.do(t, "DELETE", "/s/goals/"+id, "u2", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = s.do(t, "DELETE", "/s/goals/"+id, "u1", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestGroupRoutes(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "GET", "/s/profile", "u2", nil)

	resp, body := s.do(t, "POST", "/s/groups", "u1", map[string]any{"name": "Night Owls", "members": []string{"u2"}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "night-owls", body["slug"])
	id := body["id"].(string)

	resp, body = s.do(t, "GET", "/s/groups/"+id, "u2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["memberCount"])

	resp, _ = s.do(t, "GET", "/s/groups/"+id+"/activity", "u3", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err       error
		status    int
		retryable bool
	}{
		{&services.Error{Kind: services.KindValidation, Op: "op", Msg: "bad"}, fiber.StatusBadRequest, false},
		{&services.Error{Kind: services.KindAuthorization, Op: "op", Msg: "no"}, fiber.StatusForbidden, false},
		{&services.Error{Kind: services.KindNotFound, Op: "op", Msg: "gone"}, fiber.StatusNotFound, false},
		{&services.Error{Kind: services.KindPersistence, Op: "op", Msg: "down"}, fiber.StatusServiceUnavailable, true},
		{errors.New("boom"), fiber.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return writeError(c, tt.err) })
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body["error"])
		assert.Equal(t, tt.retryable, body["retryable"] == true)
	}
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, WriteFrame(w, events.Frame{Name: "garden_update", Data: []byte(`{"userId":"u1"}`)}))
	assert.Equal(t, "event: garden_update\ndata: {\"userId\":\"u1\"}\n\n", buf.String())
}

func TestStream(t *testing.T) {
	s := newTestServer(t)

	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for s.hub.Subscribers(events.UserTopic("u1")) == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		_ = s.hub.Publish(events.UserTopic("u1"), events.GardenUpdate{UserID: "u1"})
		_ = s.hub.Publish(events.UserTopic("u2"), events.GardenUpdate{UserID: "u2"})
		s.hub.Close()
	}()

	req := httptest.NewRequest("GET", "/s/stream", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, ":\n\nevent: garden_update\ndata: {\"userId\":\"u1\"}\n\n", string(raw))
}

func TestStream_RejectsForeignTopics(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, "GET", "/s/stream?group_id=someone-elses", "u1", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Zero(t, s.hub.Subscribers(events.UserTopic("u1")))
}

func (s *testServer) list(t *testing.T, path, userID string) []map[string]any {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("X-User-ID", userID)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestVoteAndFeedTallies(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, "POST", "/s/reflections", "u1", map[string]any{"content": "slow steady growth"})
	reflID := body["reflection"].(map[string]any)["id"].(string)

	resp, body := s.do(t, "POST", "/s/reflections/"+reflID+"/vote", "u1", map[string]any{"value": 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["upvotes"])
	assert.Equal(t, float64(0), body["comments"])

	resp, _ = s.do(t, "POST", "/s/reflections/"+reflID+"/vote", "u1", map[string]any{"value": 3})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = s.do(t, "POST", "/s/reflections/"+reflID+"/vote", "u2", map[string]any{"value": 1})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/s/reflections/"+reflID+"/comments", "u1", map[string]any{"content": "note to self"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	items := s.list(t, "/s/recent-activity", "u1")
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0]["upvotes"])
	assert.Equal(t, float64(1), items[0]["comments"])
}

func TestMilestonesRoute(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/s/reflections", "u1", map[string]any{"content": "first entry"})

	items := s.list(t, "/s/milestones", "u1")
	require.Len(t, items, 3)
	assert.Equal(t, "CONSISTENT_GARDENER", items[0]["code"])
	assert.Equal(t, "streak", items[0]["metric"])
	assert.Equal(t, float64(1), items[0]["progress"])
	assert.Equal(t, float64(7), items[0]["target"])
	assert.Equal(t, false, items[0]["completed"])
	assert.Equal(t, "FIRST_SEED", items[2]["code"])
	assert.Equal(t, true, items[2]["completed"])
}
