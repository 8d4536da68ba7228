package notefolio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store/storetest"
)

func newTestApp(t *testing.T) (*App, *storetest.Fake, *httptest.Server) {
	t.Helper()
	fake := storetest.NewFake()
	app := NewWithStore(&Config{ServerPort: "0"}, fake, zerolog.Nop())
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)
	return app, fake, srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func signIn(t *testing.T, srv *httptest.Server, name string) models.User {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signin", map[string]string{
		"name":  name,
		"email": name + "@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[signInResponse](t, resp).User
}

func TestHealth(t *testing.T) {
	_, _, srv := newTestApp(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignInSeedsDefaultFoldersOnce(t *testing.T) {
	_, _, srv := newTestApp(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signin", map[string]string{
		"name": "Ada", "email": "ada@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[signInResponse](t, resp)
	assert.True(t, first.SeededDefaults)
	assert.False(t, first.User.ID.IsZero())

	// Same user signs in again: the claim is already taken.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/signin", map[string]string{
		"id": first.User.ID.String(), "name": "Ada", "email": "ada@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[signInResponse](t, resp)
	assert.False(t, second.SeededDefaults)

	listResp, err := http.Get(srv.URL + "/api/folders")
	require.NoError(t, err)
	folders := decode[[]models.Folder](t, listResp)
	require.Len(t, folders, 3)
	assert.Equal(t, "Ideas", folders[0].Name)
}

func TestOwnerScopedEndpointsRequireSignIn(t *testing.T) {
	_, _, srv := newTestApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/folders"},
		{http.MethodGet, "/api/notes"},
		{http.MethodPost, "/api/folders"},
		{http.MethodPost, "/api/notes"},
	} {
		resp := doJSON(t, tc.method, srv.URL+tc.path, map[string]string{})
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}

	// The public feed needs no session.
	resp, err := http.Get(srv.URL + "/api/feed")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFolderLifecycle(t *testing.T) {
	_, _, srv := newTestApp(t)
	signIn(t, srv, "ada")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/folders", folderRequest{Name: "Reading"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	folder := decode[models.Folder](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/folders", folderRequest{Name: "   "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "blank name is rejected")

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/folders/"+folder.ID.String(), folderRequest{Name: "Library", Description: "books"})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/folders/"+folder.ID.String(), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/folders/"+folder.ID.String(), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNoteOwnershipAcrossSessions(t *testing.T) {
	_, _, srv := newTestApp(t)

	signIn(t, srv, "ada")
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/notes", createNoteRequest{Title: "mine"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	note := decode[models.Note](t, resp)

	// A different user signs in and tries to delete Ada's note.
	signIn(t, srv, "brin")
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/notes/"+note.ID.String(), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/notes/"+note.ID.String()+"/visibility", visibilityRequest{IsPublic: true})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFeedPagination(t *testing.T) {
	app, _, srv := newTestApp(t)
	user := signIn(t, srv, "ada")

	for i := 0; i < 12; i++ {
		_, err := app.Service().CreateNote(context.Background(), user.ID, fmt.Sprintf("note %d", i), "", nil, true)
		require.NoError(t, err)
	}

	resp, err := http.Get(srv.URL + "/api/feed")
	require.NoError(t, err)
	page := decode[notePage](t, resp)
	require.Len(t, page.Notes, 10)
	assert.True(t, page.HasMore)

	last := page.Notes[len(page.Notes)-1]
	url := fmt.Sprintf("%s/api/feed?after=%s&afterId=%s",
		srv.URL, last.CreatedAt.Format(time.RFC3339Nano), last.ID.String())
	resp, err = http.Get(url)
	require.NoError(t, err)
	next := decode[notePage](t, resp)
	require.Len(t, next.Notes, 2)
	assert.False(t, next.HasMore)

	seen := map[models.NoteID]bool{}
	for _, n := range append(page.Notes, next.Notes...) {
		assert.False(t, seen[n.ID], "duplicate across pages")
		seen[n.ID] = true
	}
}

func TestCursorParamsMustBePaired(t *testing.T) {
	_, _, srv := newTestApp(t)

	resp, err := http.Get(srv.URL + "/api/feed?after=2025-01-01T00:00:00Z")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/feed?after=yesterday&afterId=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListNotesByFolder(t *testing.T) {
	app, _, srv := newTestApp(t)
	user := signIn(t, srv, "ada")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/folders", folderRequest{Name: "Work"})
	folder := decode[models.Folder](t, resp)

	_, err := app.Service().CreateNote(context.Background(), user.ID, "filed", "", &folder.ID, false)
	require.NoError(t, err)
	_, err = app.Service().CreateNote(context.Background(), user.ID, "unfiled", "", nil, false)
	require.NoError(t, err)

	listResp, err := http.Get(srv.URL + "/api/notes?folder=" + folder.ID.String())
	require.NoError(t, err)
	page := decode[notePage](t, listResp)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "filed", page.Notes[0].Title)

	listResp, err = http.Get(srv.URL + "/api/notes")
	require.NoError(t, err)
	all := decode[notePage](t, listResp)
	assert.Len(t, all.Notes, 2)
}

func TestSignOut(t *testing.T) {
	_, _, srv := newTestApp(t)
	signIn(t, srv, "ada")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	meResp, err := http.Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	meResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, meResp.StatusCode)
}
