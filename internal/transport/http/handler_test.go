package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"feedloader/internal/domain"
	"feedloader/internal/logger"
	"feedloader/internal/metrics"
	"feedloader/internal/usecase"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	result domain.LoadFeedResult
	hold   bool
	calls  int
}

func (s *stubLoader) Load(completion func(domain.LoadFeedResult)) {
	s.calls++
	if s.hold {
		return
	}
	go completion(s.result)
}

func newTestServer(loader domain.FeedLoader) http.Handler {
	reg := prometheus.NewRegistry()
	h := NewHandler(logger.Discard(), loader, metrics.NewRecorder(reg))
	return NewServer(logger.Discard(), h, reg)
}

func TestHandler_GetFeed_Success(t *testing.T) {
	image, err := url.Parse("https://example.com/a.png")
	require.NoError(t, err)
	description := "desc"
	loader := &stubLoader{result: domain.LoadFeedResult{Items: []domain.FeedItem{
		{ID: uuid.MustParse("3f1c2a55-8b7e-4f62-9d41-0c5a7e9b2d10"), Description: &description, ImageURL: image},
	}}}
	srv := newTestServer(loader)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"items":[{"id":"3f1c2a55-8b7e-4f62-9d41-0c5a7e9b2d10","description":"desc","image":"https://example.com/a.png"}]}`, rec.Body.String())
}

func TestHandler_GetFeed_EmptyList(t *testing.T) {
	srv := newTestServer(&stubLoader{result: domain.LoadFeedResult{Items: []domain.FeedItem{}}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestHandler_GetFeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
	}{
		{name: "connectivity", err: usecase.ErrConnectivity, body: `{"error":"connectivity"}`},
		{name: "invalid data", err: usecase.ErrInvalidData, body: `{"error":"invalid data"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubLoader{result: domain.LoadFeedResult{Err: tt.err}})

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestHandler_GetFeed_EachRequestLoads(t *testing.T) {
	loader := &stubLoader{result: domain.LoadFeedResult{Items: []domain.FeedItem{}}}
	srv := newTestServer(loader)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2, loader.calls)
}

func TestHandler_GetFeed_RequestContextEnds(t *testing.T) {
	srv := newTestServer(&stubLoader{hold: true})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil).WithContext(ctx))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandler_GetFeed_MethodNotAllowed(t *testing.T) {
	loader := &stubLoader{}
	srv := newTestServer(loader)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/feed", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 0, loader.calls)
}

func TestHandler_KeepsClientRequestID(t *testing.T) {
	srv := newTestServer(&stubLoader{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-42")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ExposesMetrics(t *testing.T) {
	srv := newTestServer(&stubLoader{result: domain.LoadFeedResult{Err: usecase.ErrConnectivity}})
	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `feedloader_loads_total{outcome="connectivity",source="api"} 1`))
}
