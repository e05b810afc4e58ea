package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"libris.org/internal/auth"
	"libris.org/internal/catalog"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("LIBRIS_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	accounts := auth.NewInMemory()
	ctx := context.Background()
	for _, name := range []string{auth.RoleAdmin, auth.RoleUser} {
		role := auth.Role{Name: name}
		if err := accounts.Roles().Save(ctx, &role); err != nil {
			t.Fatalf("save role: %v", err)
		}
	}
	for _, acc := range []struct {
		username, password string
		roles              []string
	}{
		{"admin", "adminpass", []string{auth.RoleAdmin, auth.RoleUser}},
		{"user", "userpass", []string{auth.RoleUser}},
		{"editor", "editorpass", []string{auth.RoleAdmin}},
	} {
		hash, err := auth.HashPassword(acc.password)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		u := auth.User{Username: acc.username, PasswordHash: hash, Roles: acc.roles}
		if err := accounts.Users().Save(ctx, &u); err != nil {
			t.Fatalf("save user: %v", err)
		}
	}

	api := New(ReadyProbe{}, "test", catalog.NewLibrary(catalog.NewInMemory()), auth.NewGate(accounts))
	api.rateBurst = 100
	api.ratePerSec = 100

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, creds [2]string, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds[0] != "" {
		req.SetBasicAuth(creds[0], creds[1])
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

var noCreds = [2]string{"", ""}

func TestBooksFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := [2]string{"admin", "adminpass"}
	user := [2]string{"user", "userpass"}

	resp := api.do(http.MethodPost, "/api/books", map[string]any{
		"title":      "Dune",
		"authorName": "Frank Herbert",
	}, admin, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	first := decode[catalog.Book](t, resp)
	if first.ID == "" || first.Author.ID == "" {
		t.Fatalf("missing ids in response: %+v", first)
	}
	if first.Author.Name != "Frank Herbert" {
		t.Fatalf("unexpected author: %q", first.Author.Name)
	}

	// Same author name must reuse the existing node.
	resp = api.do(http.MethodPost, "/api/books", map[string]any{
		"title":      "Dune Messiah",
		"authorName": "Frank Herbert",
	}, admin, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	second := decode[catalog.Book](t, resp)
	if second.Author.ID != first.Author.ID {
		t.Fatalf("author duplicated: %s vs %s", second.Author.ID, first.Author.ID)
	}

	resp = api.do(http.MethodGet, "/api/books", nil, user, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	books := decode[[]catalog.Book](t, resp)
	if len(books) != 2 {
		t.Fatalf("books = %d, want 2", len(books))
	}
}

func TestBooksRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodGet, "/api/books", nil, noCreds, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}

	resp = api.do(http.MethodGet, "/api/books", nil, [2]string{"admin", "wrong"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", resp.StatusCode)
	}
}

func TestBooksRolePolicy(t *testing.T) {
	api := newTestAPI(t)

	// USER may read but not write.
	resp := api.do(http.MethodPost, "/api/books", map[string]any{
		"title":      "Dune",
		"authorName": "Frank Herbert",
	}, [2]string{"user", "userpass"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] == "" {
		t.Fatal("expected error message")
	}

	// ADMIN-only account can still read: the policy is ADMIN or USER.
	resp = api.do(http.MethodGet, "/api/books", nil, [2]string{"editor", "editorpass"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAddBookValidation(t *testing.T) {
	api := newTestAPI(t)
	admin := [2]string{"admin", "adminpass"}

	for name, body := range map[string]map[string]any{
		"missing title":  {"authorName": "Frank Herbert"},
		"missing author": {"title": "Dune"},
		"blank title":    {"title": "   ", "authorName": "Frank Herbert"},
		"unknown field":  {"title": "Dune", "authorName": "Frank Herbert", "isbn": "x"},
	} {
		resp := api.do(http.MethodPost, "/api/books", body, admin, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, resp.StatusCode)
		}
	}
}

func TestTokenFlow(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodPost, "/v1/auth/token", nil, [2]string{"admin", "adminpass"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	payload := decode[tokenResponse](t, resp)
	if payload.Token == "" {
		t.Fatal("empty token issued")
	}

	resp = api.do(http.MethodGet, "/api/books", nil, noCreds, map[string]string{
		"Authorization": "Bearer " + payload.Token,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bearer access: expected 200, got %d", resp.StatusCode)
	}
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodPost, "/v1/auth/token", nil, [2]string{"admin", "wrong"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = api.do(http.MethodPost, "/v1/auth/token", nil, noCreds, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", resp.StatusCode)
	}
}

func TestHealthEndpointsArePublic(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		resp := api.do(http.MethodGet, path, nil, noCreds, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestBooksMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodDelete, "/api/books", nil, [2]string{"admin", "adminpass"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Allow") == "" {
		t.Fatal("expected Allow header")
	}
}
