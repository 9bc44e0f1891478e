package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// HTTPTestHelper drives a gin engine in-process
type HTTPTestHelper struct {
	t      *testing.T
	router *gin.Engine
}

// NewHTTPTestHelper puts gin in test mode and starts with an empty engine
func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	gin.SetMode(gin.TestMode)
	return &HTTPTestHelper{t: t, router: gin.New()}
}

// SetRouter replaces the engine requests are served by
func (h *HTTPTestHelper) SetRouter(router *gin.Engine) {
	h.router = router
}

func (h *HTTPTestHelper) serve(method, url string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(h.t, err, "marshal request payload")
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, url, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)
	return recorder
}

// PostJSON sends payload as a JSON body
func (h *HTTPTestHelper) PostJSON(url string, payload any) *httptest.ResponseRecorder {
	return h.serve(http.MethodPost, url, payload, nil)
}

// GetJSON sends a bodiless GET
func (h *HTTPTestHelper) GetJSON(url string) *httptest.ResponseRecorder {
	return h.serve(http.MethodGet, url, nil, nil)
}

// GetWithHeaders sends a GET with extra headers
func (h *HTTPTestHelper) GetWithHeaders(url string, headers map[string]string) *httptest.ResponseRecorder {
	return h.serve(http.MethodGet, url, nil, headers)
}

// WithBearer returns headers carrying a bearer token
func WithBearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertJSONResponse checks the status and content type, then decodes the body into target
func (h *HTTPTestHelper) AssertJSONResponse(recorder *httptest.ResponseRecorder, expectedStatus int, target any) {
	h.t.Helper()
	require.Equal(h.t, expectedStatus, recorder.Code, "status code, body: %s", recorder.Body.String())
	require.Equal(h.t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	require.NoError(h.t, json.Unmarshal(recorder.Body.Bytes(), target), "decode response")
}

// AssertErrorResponse checks the status and that the "error" field contains substr
func (h *HTTPTestHelper) AssertErrorResponse(recorder *httptest.ResponseRecorder, expectedStatus int, substr string) {
	h.t.Helper()
	require.Equal(h.t, expectedStatus, recorder.Code, "status code, body: %s", recorder.Body.String())

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(h.t, json.Unmarshal(recorder.Body.Bytes(), &body), "decode error response")
	require.Contains(h.t, body.Error, substr)
}

// MockHTTPServer stands in for an upstream API. Unregistered paths get 404.
type MockHTTPServer struct {
	server *httptest.Server
	mu     sync.RWMutex
	routes map[string]http.HandlerFunc
}

func NewMockHTTPServer() *MockHTTPServer {
	m := &MockHTTPServer{routes: make(map[string]http.HandlerFunc)}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		handler, ok := m.routes[r.URL.Path]
		m.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	return m
}

func (m *MockHTTPServer) URL() string { return m.server.URL }

func (m *MockHTTPServer) Close() { m.server.Close() }

// On serves handler for requests whose path is exactly path
func (m *MockHTTPServer) On(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[path] = handler
}

// SpotifyTokenResponse creates a mock Spotify token response
func SpotifyTokenResponse() map[string]any {
	return map[string]any{
		"access_token": "mock-access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
}

// SpotifyTrackResponse creates a mock Spotify track response
func SpotifyTrackResponse(trackID, title, artist, album string) map[string]any {
	return map[string]any{
		"id":   trackID,
		"name": title,
		"artists": []map[string]any{
			{"id": "artist-" + trackID, "name": artist},
		},
		"album": map[string]any{
			"id":           "album-" + trackID,
			"name":         album,
			"release_date": "2021-05-01",
			"artists": []map[string]any{
				{"id": "artist-" + trackID, "name": artist},
			},
		},
		"duration_ms": 240000,
		"popularity":  75,
	}
}

// SpotifyAudioFeaturesResponse creates a mock audio-features response
func SpotifyAudioFeaturesResponse(trackID string, energy, valence float64) map[string]any {
	return map[string]any{
		"id":               trackID,
		"acousticness":     0.2,
		"danceability":     0.6,
		"energy":           energy,
		"instrumentalness": 0.0,
		"liveness":         0.1,
		"valence":          valence,
		"loudness":         -6.5,
		"speechiness":      0.04,
		"tempo":            118.0,
		"key":              4,
		"time_signature":   4,
		"duration_ms":      240000,
	}
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
