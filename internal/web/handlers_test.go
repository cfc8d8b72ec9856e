package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uismith/internal/blob"
	"uismith/internal/pipeline"
	"uismith/internal/store"
)

type fakeGenerator struct {
	artifact pipeline.GeneratedArtifact
	err      error
	apiKeys  []string
	requests []pipeline.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, apiKey string, req pipeline.GenerationRequest) (pipeline.GeneratedArtifact, error) {
	f.apiKeys = append(f.apiKeys, apiKey)
	f.requests = append(f.requests, req)
	if f.err != nil {
		return pipeline.GeneratedArtifact{}, f.err
	}
	out := f.artifact
	out.Prompt = req.Prompt
	return out, nil
}

type testClient struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T, gen Generator) (*testClient, *store.MemoryStore) {
	t.Helper()
	repo := store.NewMemoryStore()
	h := NewHandlers(repo, NewSessionStore("test-secret"), gen, nil, nil)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, srv: srv, client: &http.Client{Jar: jar}}, repo
}

func (c *testClient) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (c *testClient) signup(email string) {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/signup", map[string]string{
		"email": email, "password": "hunter2hunter2",
	})
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	require.NotContains(c.t, body, "error", "signup must succeed: %v", body)
}

func TestSignupValidation(t *testing.T) {
	c, _ := newTestClient(t, &fakeGenerator{})

	_, body := c.do(http.MethodPost, "/api/signup", map[string]string{
		"email": "not-an-email", "password": "hunter2hunter2",
	})
	assert.Contains(t, body["error"], "valid email")

	_, body = c.do(http.MethodPost, "/api/signup", map[string]string{
		"email": "dev@example.com", "password": "short",
	})
	assert.Contains(t, body["error"], "at least 8")

	c.signup("dev@example.com")
	_, body = c.do(http.MethodPost, "/api/signup", map[string]string{
		"email": "dev@example.com", "password": "hunter2hunter2",
	})
	assert.Contains(t, body["error"], "already exists")
}

func TestSigninRejectsBadCredentials(t *testing.T) {
	c, _ := newTestClient(t, &fakeGenerator{})
	c.signup("dev@example.com")
	c.do(http.MethodPost, "/api/signout", nil)

	_, body := c.do(http.MethodPost, "/api/signin", map[string]string{
		"email": "dev@example.com", "password": "wrong-password",
	})
	assert.Equal(t, "invalid email or password", body["error"])

	resp, body := c.do(http.MethodPost, "/api/signin", map[string]string{
		"email": "dev@example.com", "password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "error")
}

func TestComponentsRequireAuth(t *testing.T) {
	c, _ := newTestClient(t, &fakeGenerator{})
	resp, _ := c.do(http.MethodGet, "/api/components", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateComponentRequiresAPIKey(t *testing.T) {
	c, _ := newTestClient(t, &fakeGenerator{})
	c.signup("dev@example.com")

	_, body := c.do(http.MethodPost, "/api/components", map[string]string{"prompt": "a card"})
	assert.Contains(t, body["error"], "API key")
}

func TestCreateComponentFlow(t *testing.T) {
	gen := &fakeGenerator{artifact: pipeline.GeneratedArtifact{
		Name:        "PricingCard",
		Description: "A pricing card",
		Code:        "export default function PricingCard() {}",
	}}
	c, _ := newTestClient(t, gen)
	c.signup("dev@example.com")
	c.do(http.MethodPut, "/api/settings/apikey", map[string]string{"apiKey": "sk-user"})

	resp, body := c.do(http.MethodPost, "/api/components", map[string]string{
		"prompt": "a pricing card with three tiers",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	component := body["component"].(map[string]any)
	assert.Equal(t, "PricingCard", component["name"])
	assert.Equal(t, "a pricing card with three tiers", component["prompt"])
	assert.Equal(t, []string{"sk-user"}, gen.apiKeys, "generation must use the user's own key")

	_, body = c.do(http.MethodGet, "/api/components", nil)
	assert.Len(t, body["components"], 1)

	id := component["id"].(string)
	_, body = c.do(http.MethodGet, fmt.Sprintf("/api/components/%s/revisions", id), nil)
	assert.Len(t, body["revisions"], 1)
}

func TestModifyComponentPassesExistingCode(t *testing.T) {
	gen := &fakeGenerator{artifact: pipeline.GeneratedArtifact{
		Name: "Card", Description: "d", Code: "v2",
	}}
	c, _ := newTestClient(t, gen)
	c.signup("dev@example.com")
	c.do(http.MethodPut, "/api/settings/apikey", map[string]string{"apiKey": "sk-user"})

	_, body := c.do(http.MethodPost, "/api/components", map[string]string{"prompt": "a card"})
	id := body["component"].(map[string]any)["id"].(string)

	_, body = c.do(http.MethodPost, "/api/components/"+id+"/modify", map[string]string{
		"prompt": "make it blue",
	})
	component := body["component"].(map[string]any)
	assert.Equal(t, "v2", component["code"])

	last := gen.requests[len(gen.requests)-1]
	require.NotNil(t, last.Existing)
	assert.Equal(t, "Card", last.Existing.Name)
	assert.NotEmpty(t, last.Existing.Code)
}

func TestManualCodeSave(t *testing.T) {
	gen := &fakeGenerator{artifact: pipeline.GeneratedArtifact{Name: "Card", Code: "v1"}}
	c, _ := newTestClient(t, gen)
	c.signup("dev@example.com")
	c.do(http.MethodPut, "/api/settings/apikey", map[string]string{"apiKey": "sk-user"})

	_, body := c.do(http.MethodPost, "/api/components", map[string]string{"prompt": "a card"})
	id := body["component"].(map[string]any)["id"].(string)

	_, body = c.do(http.MethodPut, "/api/components/"+id+"/code", map[string]string{
		"code": "hand-edited",
	})
	assert.Equal(t, "hand-edited", body["component"].(map[string]any)["code"])

	_, body = c.do(http.MethodGet, "/api/components/"+id+"/revisions", nil)
	assert.Len(t, body["revisions"], 2)
}

func TestForeignComponentReadsAsNotFound(t *testing.T) {
	gen := &fakeGenerator{artifact: pipeline.GeneratedArtifact{Name: "Card", Code: "v1"}}
	c, repo := newTestClient(t, gen)
	c.signup("owner@example.com")
	c.do(http.MethodPut, "/api/settings/apikey", map[string]string{"apiKey": "sk"})
	_, body := c.do(http.MethodPost, "/api/components", map[string]string{"prompt": "a card"})
	id := body["component"].(map[string]any)["id"].(string)

	// Different browser session, different user.
	other, _ := newTestClientWithRepo(t, gen, repo)
	other.signup("intruder@example.com")
	resp, _ := other.do(http.MethodGet, "/api/components/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerationFailureIsGenericFieldError(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("create-component/design-component: %w: design returned no function call", pipeline.ErrEmptyModelOutput)}
	c, _ := newTestClient(t, gen)
	c.signup("dev@example.com")
	c.do(http.MethodPut, "/api/settings/apikey", map[string]string{"apiKey": "sk"})

	resp, body := c.do(http.MethodPost, "/api/components", map[string]string{"prompt": "a card"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// Stage names and model-output detail stay in the server log; the
	// client gets one generic message.
	assert.Equal(t, "component generation failed, please try again", body["error"])
	assert.NotContains(t, body["error"], "function call")
	assert.NotContains(t, body["error"], "design-component")
}

func TestAPIKeyNeverEchoedBack(t *testing.T) {
	c, _ := newTestClient(t, &fakeGenerator{})
	c.signup("dev@example.com")
	c.do(http.MethodPut, "/api/settings/apikey", map[string]string{"apiKey": "sk-secret"})

	_, body := c.do(http.MethodGet, "/api/settings/apikey", nil)
	assert.Equal(t, true, body["set"])
	assert.NotContains(t, body, "apiKey")
}

func TestRevisionSnapshotsArchived(t *testing.T) {
	gen := &fakeGenerator{artifact: pipeline.GeneratedArtifact{Name: "Card", Code: "v1"}}
	repo := store.NewMemoryStore()
	snapshots := blob.NewMemoryStore()
	h := NewHandlers(repo, NewSessionStore("test-secret"), gen, nil, nil)
	h.Snapshots = snapshots
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c := &testClient{t: t, srv: srv, client: &http.Client{Jar: jar}}

	c.signup("dev@example.com")
	c.do(http.MethodPut, "/api/settings/apikey", map[string]string{"apiKey": "sk"})
	_, body := c.do(http.MethodPost, "/api/components", map[string]string{"prompt": "a card"})
	id := body["component"].(map[string]any)["id"].(string)

	revs, err := repo.ListRevisions(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, revs, 1)

	archived, err := snapshots.Get(context.Background(),
		fmt.Sprintf("snapshots/%s/%s.tsx", id, revs[0].ID))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), archived)
}

func newTestClientWithRepo(t *testing.T, gen Generator, repo store.Repository) (*testClient, store.Repository) {
	t.Helper()
	h := NewHandlers(repo, NewSessionStore("test-secret"), gen, nil, nil)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, srv: srv, client: &http.Client{Jar: jar}}, repo
}
