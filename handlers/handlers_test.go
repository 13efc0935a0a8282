package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beatvault/services"
	"beatvault/store"
	"beatvault/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, beats []types.Beat) (*gin.Engine, services.Library) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	if beats != nil {
		require.NoError(t, st.Set(store.KeyBeats, beats))
	}
	library := services.NewLibrary(st, nil)

	r := gin.New()
	r.GET("/health", NewHealthHandler().HealthCheck)

	beatsHandler := NewBeatsHandler(library)
	r.GET("/api/beats", beatsHandler.ListBeats)
	r.DELETE("/api/beats", beatsHandler.ClearIndex)
	r.PATCH("/api/beats/:id", beatsHandler.UpdateBeat)
	r.GET("/api/beats/:id/cover", beatsHandler.Cover)
	r.GET("/api/beats/:id/stream", beatsHandler.Stream)

	foldersHandler := NewFoldersHandler(library)
	r.GET("/api/folders", foldersHandler.ListFolders)
	r.POST("/api/folders", foldersHandler.AddFolder)
	r.DELETE("/api/folders", foldersHandler.RemoveFolder)

	return r, library
}

func doRequest(r *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// TestHealthCheck tests the health endpoint
func TestHealthCheck(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "beatvault", body["service"])
}

// TestListBeats tests listing with and without a search filter
func TestListBeats(t *testing.T) {
	r, _ := setupRouter(t, []types.Beat{
		{ID: "1", Name: "alpha.mp3", Title: "Alpha", Artist: "Metro"},
		{ID: "2", Name: "beta.wav", Title: "Beta", Artist: "Zaytoven"},
	})

	w := doRequest(r, http.MethodGet, "/api/beats", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])

	w = doRequest(r, http.MethodGet, "/api/beats?search=metro", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])
}

// TestUpdateBeat tests PATCH validation and persistence
func TestUpdateBeat(t *testing.T) {
	r, library := setupRouter(t, []types.Beat{
		{ID: "1", Name: "alpha.mp3", Title: "Alpha", BPM: 140},
	})

	w := doRequest(r, http.MethodPatch, "/api/beats/1", `{"bpm": 150, "key": "Am"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	beat, err := library.GetBeat("1")
	require.NoError(t, err)
	assert.Equal(t, 150, beat.BPM)
	assert.Equal(t, "Am", beat.Key)

	// An empty edit is rejected.
	w = doRequest(r, http.MethodPatch, "/api/beats/1", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPatch, "/api/beats/missing", `{"bpm": 120}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestClearIndex tests wiping the library over HTTP
func TestClearIndex(t *testing.T) {
	r, library := setupRouter(t, []types.Beat{{ID: "1", Name: "alpha.mp3"}})

	w := doRequest(r, http.MethodDelete, "/api/beats", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	beats, err := library.Beats()
	require.NoError(t, err)
	assert.Empty(t, beats)
}

// TestCover tests cover art decoding and the not-found cases
func TestCover(t *testing.T) {
	r, _ := setupRouter(t, []types.Beat{
		{ID: "1", Name: "alpha.mp3", CoverArt: "data:image/png;base64,AQID"},
		{ID: "2", Name: "beta.mp3"},
	})

	w := doRequest(r, http.MethodGet, "/api/beats/1/cover", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte{1, 2, 3}, w.Body.Bytes())

	w = doRequest(r, http.MethodGet, "/api/beats/2/cover", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/api/beats/missing/cover", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestStream tests full and partial audio delivery
func TestStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alpha.mp3")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	r, _ := setupRouter(t, []types.Beat{
		{ID: "1", Name: "alpha.mp3", Path: path, Format: ".mp3"},
		{ID: "2", Name: "gone.mp3", Path: filepath.Join(t.TempDir(), "gone.mp3"), Format: ".mp3"},
	})

	w := doRequest(r, http.MethodGet, "/api/beats/1/stream", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, "0123456789", w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/beats/1/stream", "", map[string]string{"Range": "bytes=2-5"})
	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 2-5/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "2345", w.Body.String())

	// Open-ended range reads to the end of the file.
	w = doRequest(r, http.MethodGet, "/api/beats/1/stream", "", map[string]string{"Range": "bytes=7-"})
	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "789", w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/beats/1/stream", "", map[string]string{"Range": "bytes=99-"})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)

	w = doRequest(r, http.MethodGet, "/api/beats/2/stream", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestFolderEndpoints tests the folder CRUD surface
func TestFolderEndpoints(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/folders", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	dir := t.TempDir()
	payload, err := json.Marshal(FolderRequest{Path: dir})
	require.NoError(t, err)

	w = doRequest(r, http.MethodPost, "/api/folders", string(payload), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/api/folders", "", nil)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	// Missing body fails binding.
	w = doRequest(r, http.MethodPost, "/api/folders", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/folders", string(payload), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/folders", string(payload), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
