package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests drive the assembled router end to end through a real HTTP
// client with a cookie jar, exactly the way a browser session behaves: the
// Set-Cookie from login carries the JWT into every subsequent request.

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv, err := New(Config{
		JWTSecret:   "test-secret-at-least-16-chars",
		FrontendURL: "http://localhost:8080",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// postJSON sends body as JSON and decodes the response into out (if non-nil).
func postJSON(t *testing.T, client *http.Client, url string, body any, out any) *http.Response {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func getJSON(t *testing.T, client *http.Client, url string, out any) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func demoLogin(t *testing.T, client *http.Client, baseURL, username string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/auth/demo", map[string]string{"username": username}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	resp := getJSON(t, newTestClient(t), ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireCookie(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t) // empty jar — no session

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/creatures"},
		{http.MethodPost, "/api/creatures"},
		{http.MethodDelete, "/api/creatures/some-id"},
		{http.MethodPost, "/api/shares"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "unauthenticated", body["error"])
		})
	}
}

func TestDemoLogin_SetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t)

	var user map[string]any
	resp := postJSON(t, client, ts.URL+"/auth/demo", map[string]string{"username": "ash"}, &user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ash", user["username"])
	assert.Equal(t, "ash@demo.test", user["email"])

	// The cookie from login must authenticate /api/me
	var me map[string]any
	resp = getJSON(t, client, ts.URL+"/api/me", &me)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ash", me["username"])
	assert.Equal(t, "ash@demo.test", me["email"])
}

func TestDemoLogin_RejectsShortUsername(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	resp := postJSON(t, newTestClient(t), ts.URL+"/auth/demo", map[string]string{"username": "a"}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
}

func TestLogout_ClearsSession(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t)
	demoLogin(t, client, ts.URL, "ash")

	resp := postJSON(t, client, ts.URL+"/auth/logout", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The jar honors the MaxAge=-1 deletion, so the session is gone
	resp = getJSON(t, client, ts.URL+"/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatureLifecycle(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t)
	demoLogin(t, client, ts.URL, "ash")

	// Generate
	var creature map[string]any
	resp := postJSON(t, client, ts.URL+"/api/creatures", map[string]any{
		"prompt":    "fiery fox spirit",
		"animals":   []string{"Fox", "Dragon"},
		"abilities": []string{"Fire Breath"},
	}, &creature)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := creature["id"].(string)
	require.NotEmpty(t, id)
	assert.Contains(t, creature["imageUrl"], "image.pollinations.ai")

	// List contains it
	var list []map[string]any
	resp = getJSON(t, client, ts.URL+"/api/creatures", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	// Delete
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/creatures/"+id, nil)
	require.NoError(t, err)
	resp2, err := client.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp2.StatusCode)

	// List is empty again — and it's a JSON array, not null
	raw, err := client.Get(ts.URL + "/api/creatures")
	require.NoError(t, err)
	defer raw.Body.Close()
	b, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(b))
}

func TestGenerate_RejectsEmptyPrompt(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t)
	demoLogin(t, client, ts.URL, "ash")

	var body map[string]string
	resp := postJSON(t, client, ts.URL+"/api/creatures", map[string]any{"prompt": "  "}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
}

// Two sessions, two users: each sees only their own collection, and deleting
// across the boundary is indistinguishable from a missing id.
func TestCollectionsAreOwnerScoped(t *testing.T) {
	ts := newTestServer(t)

	ash := newTestClient(t)
	demoLogin(t, ash, ts.URL, "ash")
	misty := newTestClient(t)
	demoLogin(t, misty, ts.URL, "misty")

	var creature map[string]any
	resp := postJSON(t, ash, ts.URL+"/api/creatures", map[string]any{"prompt": "fiery fox"}, &creature)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := creature["id"].(string)

	// Misty's list doesn't include Ash's creature
	var list []map[string]any
	resp = getJSON(t, misty, ts.URL+"/api/creatures", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, list)

	// Misty can't delete it — 404, not 403
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/creatures/"+id, nil)
	require.NoError(t, err)
	resp2, err := misty.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)

	// Ash still has it
	resp = getJSON(t, ash, ts.URL+"/api/creatures", &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list, 1)
}

func TestShareFlow(t *testing.T) {
	ts := newTestServer(t)
	client := newTestClient(t)
	demoLogin(t, client, ts.URL, "ash")

	var creature map[string]any
	resp := postJSON(t, client, ts.URL+"/api/creatures", map[string]any{"prompt": "fiery fox"}, &creature)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := creature["id"].(string)

	// Mint the share
	var share map[string]string
	resp = postJSON(t, client, ts.URL+"/api/shares", map[string]string{"creatureId": id}, &share)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, share["shareId"])
	assert.Equal(t, "http://localhost:8080/share/"+share["shareId"], share["shareUrl"])

	// Delete the source, then resolve WITHOUT a session: the snapshot
	// survives and the endpoint is public.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/creatures/"+id, nil)
	require.NoError(t, err)
	resp2, err := client.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	require.Equal(t, http.StatusNoContent, resp2.StatusCode)

	anonymous := newTestClient(t)
	var resolved map[string]any
	resp = getJSON(t, anonymous, ts.URL+"/api/shares/"+share["shareId"], &resolved)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fiery fox", resolved["prompt"])
	assert.Equal(t, creature["imageUrl"], resolved["imageUrl"])
}

func TestShare_UnknownIDIs404(t *testing.T) {
	ts := newTestServer(t)

	resp := getJSON(t, newTestClient(t), ts.URL+"/api/shares/no-such-share", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShare_ForeignCreatureIs404(t *testing.T) {
	ts := newTestServer(t)

	ash := newTestClient(t)
	demoLogin(t, ash, ts.URL, "ash")
	misty := newTestClient(t)
	demoLogin(t, misty, ts.URL, "misty")

	var creature map[string]any
	resp := postJSON(t, ash, ts.URL+"/api/creatures", map[string]any{"prompt": "fiery fox"}, &creature)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, misty, ts.URL+"/api/shares",
		map[string]string{"creatureId": creature["id"].(string)}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOptions_PublicPickLists(t *testing.T) {
	ts := newTestServer(t)

	var opts map[string][]string
	resp := getJSON(t, newTestClient(t), ts.URL+"/api/options", &opts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, opts["animals"], 20)
	assert.Len(t, opts["abilities"], 20)
	assert.Contains(t, opts["animals"], "Dragon")
}

func TestGoogleRoutes_AbsentWithoutCredentials(t *testing.T) {
	ts := newTestServer(t) // config carries no Google credentials

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(ts.URL + "/auth/google/login")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
