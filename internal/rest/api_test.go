package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatri/govportal/analytics"
	"github.com/chatri/govportal/api"
	"github.com/chatri/govportal/content/application"
	"github.com/chatri/govportal/content/domain"
	"github.com/chatri/govportal/content/persistence"
	"github.com/chatri/govportal/internal/auth"
	"github.com/chatri/govportal/internal/blobstore"
)

// fakeEvents implements analytics.EventRepository in memory.
type fakeEvents struct {
	mu     sync.Mutex
	events []analytics.ReadEvent
}

func (f *fakeEvents) Append(ctx context.Context, ev *analytics.ReadEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeEvents) TotalsByKind(ctx context.Context) ([]analytics.KindTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int64{}
	for _, ev := range f.events {
		counts[ev.Kind]++
	}
	totals := []analytics.KindTotal{}
	for kind, reads := range counts {
		totals = append(totals, analytics.KindTotal{Kind: kind, Reads: reads})
	}
	return totals, nil
}

func (f *fakeEvents) TopRecords(ctx context.Context, limit int) ([]analytics.TopRecord, error) {
	return []analytics.TopRecord{}, nil
}

func (f *fakeEvents) RecentEvents(ctx context.Context, limit int) ([]analytics.ReadEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	limit = analytics.ClampFeedLimit(limit)
	if limit > len(f.events) {
		limit = len(f.events)
	}
	return f.events[len(f.events)-limit:], nil
}

func (f *fakeEvents) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type testEnv struct {
	router *gin.Engine
	token  string
	events *fakeEvents
	reads  *analytics.ReadLogger
	blobs  *blobstore.Store
	news   *application.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	events := &fakeEvents{}
	reads := analytics.NewReadLogger(events)
	t.Cleanup(func() { reads.Close() })

	blobs, err := blobstore.New(t.TempDir())
	require.NoError(t, err)

	news := application.NewService(domain.KindNews, persistence.NewMemoryRecordRepository())
	announcements := application.NewService(domain.KindAnnouncement, persistence.NewMemoryRecordRepository())

	gate := auth.NewGate("admin", "secret")
	token, _ := gate.Login("admin", "secret")

	handler := NewHandler(news, announcements, reads, events, blobs, gate,
		application.NewBodyRenderer(""))

	router := gin.New()
	handler.Register(router)

	return &testEnv{
		router: router,
		token:  token,
		events: events,
		reads:  reads,
		blobs:  blobs,
		news:   news,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createNews(t *testing.T, body gin.H) *api.Record {
	t.Helper()
	w := e.do(t, http.MethodPost, "/admin/api/news", body, true)
	require.Equal(t, http.StatusCreated, w.Code, "create failed: %s", w.Body.String())

	rec := &api.Record{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), rec))
	return rec
}

func TestPublicList_HidesDrafts(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{"title": "Live", "summary": "s", "content": "c"})
	env.createNews(t, gin.H{"title": "Draft", "summary": "s", "content": "c", "published": false})

	w := env.do(t, http.MethodGet, "/api/news", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var records []api.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "live", records[0].Slug)
}

func TestAdminList_RequiresTokenAndShowsDrafts(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{"title": "Draft", "summary": "s", "content": "c", "published": false})

	w := env.do(t, http.MethodGet, "/admin/api/news", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/admin/api/news", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var records []api.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestPublicGet_HiddenIs404AndDoesNotLogRead(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{"title": "Draft", "summary": "s", "content": "c", "published": false})

	w := env.do(t, http.MethodGet, "/api/news/draft", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.reads.Close()
	env.events.mu.Lock()
	defer env.events.mu.Unlock()
	assert.Empty(t, env.events.events, "a hidden read must not reach analytics")
}

func TestPublicGet_LogsReadEvent(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{"title": "Budget Plan", "summary": "s", "content": "c"})

	w := env.do(t, http.MethodGet, "/api/news/budget-plan", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	env.reads.Close()
	env.events.mu.Lock()
	defer env.events.mu.Unlock()
	require.Len(t, env.events.events, 1)
	assert.Equal(t, "news", env.events.events[0].Kind)
	assert.Equal(t, "budget-plan", env.events.events[0].Slug)
	assert.Equal(t, "Budget Plan", env.events.events[0].Title)
}

func TestPublicGet_HTMLFormat(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{
		"title": "Formatted", "summary": "s",
		"content": "First paragraph.\n\nSecond with **bold**.",
	})

	w := env.do(t, http.MethodGet, "/api/news/formatted?format=html", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	rec := &api.Record{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), rec))
	assert.Contains(t, rec.ContentHTML, "<strong>bold</strong>")
	assert.Equal(t, []string{"First paragraph.", "Second with **bold**."}, rec.Paragraphs)
}

func TestUnknownKindIs404(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/pages", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/admin/api/login",
		gin.H{"username": "admin", "password": "secret"}, false)
	require.Equal(t, http.StatusOK, w.Code)

	resp := &api.LoginResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp))
	assert.Equal(t, env.token, resp.Token)

	w = env.do(t, http.MethodPost, "/admin/api/login",
		gin.H{"username": "admin", "password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreate_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/admin/api/news", gin.H{"title": "No body"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/admin/api/news", gin.H{
		"title": "Bad window", "summary": "s", "content": "c",
		"displayFrom": "2026-02-01T00:00:00Z", "displayUntil": "2026-01-01T00:00:00Z",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_FlexiblePublishedCoercion(t *testing.T) {
	env := newTestEnv(t)

	rec := env.createNews(t, gin.H{"title": "Stringy", "summary": "s", "content": "c", "published": "false"})
	assert.False(t, rec.Published, `"false" should coerce to false at the boundary`)
}

func TestUpdate_PartialWithExplicitNull(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{
		"title": "Windowed", "summary": "keep me", "content": "c",
		"displayFrom": "2026-06-01T00:00:00Z",
	})

	// Raw JSON so displayFrom is an explicit null, not an absent key.
	req := httptest.NewRequest(http.MethodPut, "/admin/api/news/windowed",
		strings.NewReader(`{"displayFrom": null}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rec := &api.Record{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), rec))
	assert.Nil(t, rec.DisplayFrom, "explicit null should clear the window bound")
	assert.Equal(t, "keep me", rec.Summary, "absent keys stay untouched")
}

func TestUpdate_NothingToUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.createNews(t, gin.H{"title": "Full", "summary": "s", "content": "c"})

	w := env.do(t, http.MethodPut, "/admin/api/news/full", gin.H{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_MissingSlugIs404(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/admin/api/news/ghost", gin.H{"title": "x"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_RemovesRecordAndImage(t *testing.T) {
	env := newTestEnv(t)

	ref := uploadPNG(t, env)
	env.createNews(t, gin.H{"title": "Pictured", "summary": "s", "content": "c", "imageUrl": ref})

	w := env.do(t, http.MethodDelete, "/admin/api/news/pictured", nil, true)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/admin/api/news/pictured", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assertBlobGone(t, env, ref)

	w = env.do(t, http.MethodDelete, "/admin/api/news/pictured", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdate_ImageReplacementDeletesOldBlob(t *testing.T) {
	env := newTestEnv(t)

	oldRef := uploadPNG(t, env)
	env.createNews(t, gin.H{"title": "Pictured", "summary": "s", "content": "c", "imageUrl": oldRef})

	newRef := uploadPNG(t, env)
	w := env.do(t, http.MethodPut, "/admin/api/news/pictured", gin.H{"imageUrl": newRef}, true)
	require.Equal(t, http.StatusOK, w.Code)

	assertBlobGone(t, env, oldRef)
	assertBlobExists(t, env, newRef)
}

func TestUpdate_FailureDeletesNewUpload(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{
		"title": "Windowed", "summary": "s", "content": "c",
		"displayUntil": "2026-06-30T00:00:00Z",
	})

	newRef := uploadPNG(t, env)
	w := env.do(t, http.MethodPut, "/admin/api/news/windowed", gin.H{
		"imageUrl":    newRef,
		"displayFrom": "2026-07-15T00:00:00Z", // violates the existing displayUntil
	}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	assertBlobGone(t, env, newRef)
}

func TestUpload_RejectsNonImage(t *testing.T) {
	env := newTestEnv(t)

	w := postMultipart(t, env, "notes.txt", []byte("plain text, definitely not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	env.createNews(t, gin.H{"title": "Read me", "summary": "s", "content": "c"})
	env.do(t, http.MethodGet, "/api/news/read-me", nil, false)
	env.reads.Close()

	w := env.do(t, http.MethodGet, "/admin/api/analytics/summary", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"news"`)

	w = env.do(t, http.MethodGet, "/admin/api/analytics/recent?limit=9999", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"limit":%d`, analytics.MaxFeedLimit))

	w = env.do(t, http.MethodGet, "/admin/api/analytics/top", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "analytics are admin-only")
}

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 24)...)

func uploadPNG(t *testing.T, env *testEnv) string {
	t.Helper()

	w := postMultipart(t, env, "pic.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := &api.UploadResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp))
	return resp.URL
}

func postMultipart(t *testing.T, env *testEnv, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func assertBlobGone(t *testing.T, env *testEnv, ref string) {
	t.Helper()
	path := filepath.Join(env.blobs.Dir(), strings.TrimPrefix(ref, blobstore.PublicPrefix))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "blob %s should be deleted", ref)
}

func assertBlobExists(t *testing.T, env *testEnv, ref string) {
	t.Helper()
	path := filepath.Join(env.blobs.Dir(), strings.TrimPrefix(ref, blobstore.PublicPrefix))
	_, err := os.Stat(path)
	assert.NoError(t, err, "blob %s should exist", ref)
}
