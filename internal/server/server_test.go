package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileys/smileys/internal/cache"
	"github.com/smileys/smileys/internal/core/exclusion"
	"github.com/smileys/smileys/internal/core/processor"
	"github.com/smileys/smileys/internal/core/render"
	"github.com/smileys/smileys/internal/metrics"
	"github.com/smileys/smileys/internal/observability/logging"
)

func newTestServer(t *testing.T, opts Options) (*Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	engine, err := processor.New(processor.Options{
		PacksDir: t.TempDir(),
		Render:   render.Options{Mode: render.ModeMarkdown, BaseURL: "/img"},
		Store:    cache.NewMemoryStore(cache.MemoryOptions{}),
		Logger:   logging.NewMockLogger(),
		Metrics:  m,
	})
	require.NoError(t, err)

	opts.Logger = logging.NewMockLogger()
	opts.Metrics = m
	if !opts.Exclusion.Enabled {
		opts.Exclusion = exclusion.DefaultConfig()
	}
	return New(engine, opts), m
}

func postProcess(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, ProcessResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp ProcessResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestProcessEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	tests := []struct {
		name          string
		body          string
		want          string
		substitutions int
	}{
		{"substitutes", `{"text":"hi :)"}`, `hi ![Smile](/img/simple_smileys/smile.png "Smile")`, 1},
		{"keeps code", `{"text":"<code>:)</code>"}`, `<code>:)</code>`, 0},
		{"empty text", `{"text":""}`, ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := postProcess(t, s.Handler(), tt.body)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, resp.Text)
			assert.Equal(t, tt.substitutions, resp.Substitutions)
			assert.True(t, resp.Processed)
		})
	}
}

func TestProcessEndpoint_Gating(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	body := `{"text":"hi :)","key":"post-1","modified_at":"2026-01-02T15:04:05Z"}`

	_, first := postProcess(t, s.Handler(), body)
	assert.True(t, first.Processed)

	_, second := postProcess(t, s.Handler(), body)
	assert.False(t, second.Processed)
	assert.Equal(t, processor.SkipUnchanged, second.Skipped)
	assert.Equal(t, "hi :)", second.Text)
}

func TestProcessEndpoint_PatternErrors(t *testing.T) {
	cfg := exclusion.DefaultConfig()
	cfg.Patterns = []string{"/([a/"}
	s, _ := newTestServer(t, Options{Exclusion: cfg})

	rec, resp := postProcess(t, s.Handler(), `{"text":":)"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resp.Substitutions)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "([a")
}

func TestProcessEndpoint_BadRequests(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		s, _ := newTestServer(t, Options{})
		rec, _ := postProcess(t, s.Handler(), `{"text":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid request")
	})

	t.Run("body too large", func(t *testing.T) {
		s, _ := newTestServer(t, Options{MaxBodyBytes: 16})
		rec, _ := postProcess(t, s.Handler(), fmt.Sprintf(`{"text":%q}`, strings.Repeat(":)", 32)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		s, _ := newTestServer(t, Options{})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/process", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestPackEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/pack", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "simple_smileys", resp.ID)
	assert.True(t, resp.Embedded)
	assert.NotEmpty(t, resp.Smileys)
	assert.NotContains(t, rec.Body.String(), `"path"`)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	postProcess(t, s.Handler(), `{"text":":)"}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"pack":"simple_smileys"`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smileys_substitutions_total 1")
}

func TestServe(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/v1/process"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(`{"text":";)"}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "wink.png")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestProcessEndpoint_ExcludeOverride(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	tests := []struct {
		name          string
		body          string
		substitutions int
		skipped       string
	}{
		{"extra tag", `{"text":"<var>:)</var> :)","exclude":{"tags":["var"]}}`, 1, ""},
		{"extra pattern", `{"text":"[q]:)[/q] :)","exclude":{"patterns":["[q]:)[/q]"]}}`, 1, ""},
		{"disabled", `{"text":":)","exclude":{"enabled":false}}`, 0, processor.SkipDisabled},
		{"no override", `{"text":"<var>:)</var> :)"}`, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := postProcess(t, s.Handler(), tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.substitutions, resp.Substitutions)
			assert.Equal(t, tt.skipped, resp.Skipped)
			assert.Empty(t, resp.Errors)
		})
	}
}
