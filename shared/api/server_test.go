package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"learning-path/internal/models"
	"learning-path/shared/config"
	"learning-path/shared/logging"
	"learning-path/shared/monitoring"
	"learning-path/shared/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	doc *models.CourseDocument
	err error
	got models.CourseRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req models.CourseRequest) (*models.CourseDocument, error) {
	f.got = req
	return f.doc, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, AllowedOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{Backend: config.StorageLocal, Folder: "courses"},
	}
}

func newTestServer(t *testing.T, gen CourseGenerator) (*Server, *storage.LocalStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	return NewServer(testConfig(), gen, store, monitoring.NewMonitor(logging.NewNop()), logging.NewNop()), store
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

const linearAlgebra = `{"topic":"Linear Algebra","category":"Math","difficulty":"Beginner","chapters":3,"tone_output_style":"Educational"}`

func TestGenerateLearningPath(t *testing.T) {
	gen := &fakeGenerator{doc: &models.CourseDocument{
		Title:    "Linear Algebra Foundations",
		Chapters: make([]models.ChapterContent, 3),
		Metadata: models.CourseMetadata{StorageURI: "file:///tmp/courses/Linear_Algebra_Foundations_1.json"},
	}}
	s, _ := newTestServer(t, gen)

	w := do(s, http.MethodPost, "/generate-learning-path", linearAlgebra)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var doc models.CourseDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Linear Algebra Foundations", doc.Title)
	assert.Len(t, doc.Chapters, 3)
	assert.Equal(t, "file:///tmp/courses/Linear_Algebra_Foundations_1.json", doc.Metadata.StorageURI)

	assert.Equal(t, "Linear Algebra", gen.got.Topic)
	assert.Equal(t, 3, gen.got.ChapterCount)
	assert.Equal(t, models.Tone("Educational"), gen.got.Tone)
}

func TestGenerateLearningPathErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantKind   models.ErrorKind
		wantField  string
		wantRaw    string
	}{
		{
			name:       "Malformed body",
			body:       `{"topic":`,
			wantStatus: http.StatusBadRequest,
			wantKind:   models.KindValidation,
		},
		{
			name:       "Invalid request",
			body:       linearAlgebra,
			err:        &models.ValidationError{Field: "ChapterCount", Detail: "must be positive"},
			wantStatus: http.StatusBadRequest,
			wantKind:   models.KindValidation,
			wantField:  "ChapterCount",
		},
		{
			name:       "Throttled",
			body:       linearAlgebra,
			err:        fmt.Errorf("outline: %w", &models.GenerationError{Model: "m", Attempts: 5, Err: &models.ThrottledError{Service: "gemini", Err: errors.New("429")}}),
			wantStatus: http.StatusTooManyRequests,
			wantKind:   models.KindThrottled,
		},
		{
			name:       "Malformed model output",
			body:       linearAlgebra,
			err:        fmt.Errorf("chapter 2: %w", &models.MalformedOutputError{Raw: "not json", Detail: "no JSON object"}),
			wantStatus: http.StatusBadGateway,
			wantKind:   models.KindMalformedOutput,
			wantRaw:    "not json",
		},
		{
			name:       "Upstream failure",
			body:       linearAlgebra,
			err:        &models.UpstreamError{Service: "gemini", Err: errors.New("bad request")},
			wantStatus: http.StatusBadGateway,
			wantKind:   models.KindUpstream,
		},
		{
			name:       "Persistence failure",
			body:       linearAlgebra,
			err:        &models.PersistenceError{Key: "courses/x_1", Err: errors.New("disk full")},
			wantStatus: http.StatusInternalServerError,
			wantKind:   models.KindPersistence,
		},
		{
			name:       "Unclassified failure",
			body:       linearAlgebra,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   models.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, &fakeGenerator{err: tt.err})

			w := do(s, http.MethodPost, "/generate-learning-path", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
			assert.Equal(t, tt.wantRaw, body.Raw)
		})
	}
}

func TestListAndGetCourses(t *testing.T) {
	s, store := newTestServer(t, &fakeGenerator{})
	ctx := context.Background()

	w := do(s, http.MethodGet, "/courses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"courses":[]}`, w.Body.String())

	_, err := store.Put(ctx, "courses/Linear_Algebra_1700000000", []byte(`{"course_title":"Linear Algebra"}`))
	require.NoError(t, err)
	_, err = store.Put(ctx, "courses/Baking_Bread_1700000100", []byte(`{"course_title":"Baking Bread"}`))
	require.NoError(t, err)

	w = do(s, http.MethodGet, "/courses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"courses":["Baking_Bread_1700000100","Linear_Algebra_1700000000"]}`, w.Body.String())

	w = do(s, http.MethodGet, "/courses/Linear_Algebra_1700000000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"course_title":"Linear Algebra"}`, w.Body.String())

	w = do(s, http.MethodGet, "/courses/Linear_Algebra_1700000000.json", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, "/courses/Missing_1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodGet, "/courses/..", "")
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestCourseRouteAliases(t *testing.T) {
	s, store := newTestServer(t, &fakeGenerator{})
	_, err := store.Put(context.Background(), "courses/Linear_Algebra_1700000000", []byte(`{"course_title":"Linear Algebra"}`))
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"List", "/list-courses/", http.StatusOK, `{"courses":["Linear_Algebra_1700000000"]}`},
		{"Get", "/get-course/Linear_Algebra_1700000000", http.StatusOK, `{"course_title":"Linear Algebra"}`},
		{"Get missing", "/get-course/Missing_1", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestHealthAndStatusMounted(t *testing.T) {
	s, _ := newTestServer(t, &fakeGenerator{})

	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OK")

	w = do(s, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	s, _ := newTestServer(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/generate-learning-path", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/generate-learning-path", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(models.KindValidation))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(models.KindThrottled))
	assert.Equal(t, http.StatusBadGateway, statusFor(models.KindUpstream))
	assert.Equal(t, http.StatusBadGateway, statusFor(models.KindMalformedOutput))
	assert.Equal(t, http.StatusInternalServerError, statusFor(models.KindPersistence))
	assert.Equal(t, http.StatusInternalServerError, statusFor(models.KindInternal))
}
