package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/search"
	"github.com/kurihiro0119/github-repo-finder/internal/storage/sqlite"
	"github.com/kurihiro0119/github-repo-finder/internal/viewmodel"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func strPtr(s string) *string { return &s }

type testServer struct {
	router http.Handler
	home   *viewmodel.Home
	store  localstore.Store
}

func newTestServer(t *testing.T, searcher search.Searcher) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	store := localstore.New(st, logger)
	home := viewmodel.NewHome(context.Background(), searcher, store, viewmodel.HomeOptions{
		DiscardStale: true,
		Logger:       logger,
	})
	t.Cleanup(home.Close)

	handler := NewHandler(searcher, store, home, HandlerOptions{DefaultLanguage: "en", Logger: logger})
	return &testServer{
		router: SetupRoutes(handler, logger),
		home:   home,
		store:  store,
	}
}

func fixedSearcher(ids ...int64) search.Searcher {
	return search.SearcherFunc(func(ctx context.Context, keyword string) domain.Response[[]*domain.Repository] {
		out := []*domain.Repository{}
		for _, id := range ids {
			out = append(out, &domain.Repository{ID: id, Name: strPtr(keyword)})
		}
		return domain.Success(out)
	})
}

func failingSearcher(code apperrors.ErrCode) search.Searcher {
	return search.SearcherFunc(func(context.Context, string) domain.Response[[]*domain.Repository] {
		return domain.Failure[[]*domain.Repository](code)
	})
}

func (s *testServer) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code      apperrors.ErrCode `json:"code"`
		Message   string            `json:"message"`
		Retryable bool              `json:"retryable"`
	} `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, fixedSearcher())

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSearchAnnotatesSavedFlags(t *testing.T) {
	s := newTestServer(t, fixedSearcher(1, 2))

	w := s.do(t, http.MethodPost, "/api/v1/saved", domain.Repository{ID: 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/search?q=kotlin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Data []*domain.Repository `json:"data"`
	}](t, w)
	require.Len(t, body.Data, 2)
	assert.Equal(t, int64(1), body.Data[0].ID)
	assert.True(t, body.Data[0].IsSaved)
	assert.False(t, body.Data[1].IsSaved)
	assert.Equal(t, "kotlin", *body.Data[0].Name)
}

func TestSearchBlankKeyword(t *testing.T) {
	s := newTestServer(t, failingSearcher(apperrors.ErrCodeGeneric))

	w := s.do(t, http.MethodGet, "/api/v1/search?q=%20%20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestSearchErrorEnvelope(t *testing.T) {
	tests := []struct {
		code      apperrors.ErrCode
		status    int
		retryable bool
	}{
		{apperrors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{apperrors.ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{apperrors.ErrCodeInvalidRequest, http.StatusBadRequest, false},
		{apperrors.ErrCodeUnauthorized, http.StatusUnauthorized, false},
		{apperrors.ErrCodeTimeout, http.StatusGatewayTimeout, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			s := newTestServer(t, failingSearcher(tt.code))

			w := s.do(t, http.MethodGet, "/api/v1/search?q=go", nil)
			assert.Equal(t, tt.status, w.Code)

			body := decode[errorBody](t, w)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.retryable, body.Error.Retryable)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestErrorMessageLanguage(t *testing.T) {
	s := newTestServer(t, failingSearcher(apperrors.ErrCodeTimeout))

	w := s.do(t, http.MethodGet, "/api/v1/search?q=go", nil, "Accept-Language", "ja-JP,ja;q=0.9")
	body := decode[errorBody](t, w)
	assert.Equal(t, "リクエストがタイムアウトしました。再試行してください。", body.Error.Message)

	w = s.do(t, http.MethodGet, "/api/v1/search?q=go", nil)
	body = decode[errorBody](t, w)
	assert.Equal(t, "The request timed out. Please try again.", body.Error.Message)
}

func TestSavedListRoutes(t *testing.T) {
	s := newTestServer(t, fixedSearcher())

	w := s.do(t, http.MethodGet, "/api/v1/saved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodPost, "/api/v1/saved", domain.Repository{ID: 5, Name: strPtr("five")})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/v1/saved", nil)
	list := decode[struct {
		Data []*domain.SavedRepository `json:"data"`
	}](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "five", *list.Data[0].Name)
	assert.True(t, list.Data[0].IsSaved)

	w = s.do(t, http.MethodDelete, "/api/v1/saved/5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/v1/saved/404", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/saved", nil)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestSavedListBadRequests(t *testing.T) {
	s := newTestServer(t, fixedSearcher())

	w := s.do(t, http.MethodDelete, "/api/v1/saved/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/saved", map[string]string{"name": "no id"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, decode[errorBody](t, w).Error.Code)
}

func TestPreviewRoutes(t *testing.T) {
	s := newTestServer(t, fixedSearcher())

	w := s.do(t, http.MethodGet, "/api/v1/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":null}`, w.Body.String())

	w = s.do(t, http.MethodPut, "/api/v1/preview", domain.Repository{ID: 3, Name: strPtr("three")})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/preview", nil)
	body := decode[struct {
		Data *domain.Repository `json:"data"`
	}](t, w)
	require.NotNil(t, body.Data)
	assert.Equal(t, int64(3), body.Data.ID)
}

type homeBody struct {
	Data struct {
		Keyword     string                                `json:"keyword"`
		Search      domain.Response[[]*domain.Repository] `json:"search"`
		PreviewSave domain.Response[bool]                 `json:"preview_save"`
		SaveToggle  domain.Response[bool]                 `json:"save_toggle"`
	} `json:"data"`
}

func TestHomeSession(t *testing.T) {
	s := newTestServer(t, fixedSearcher(1, 2))

	w := s.do(t, http.MethodGet, "/api/v1/home", nil)
	require.Equal(t, http.StatusOK, w.Code)
	home := decode[homeBody](t, w)
	assert.Equal(t, "", home.Data.Keyword)
	assert.True(t, home.Data.Search.IsSuccess())
	assert.True(t, home.Data.PreviewSave.IsLoading())

	w = s.do(t, http.MethodPut, "/api/v1/home/keyword", map[string]string{"keyword": "go"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "go", decode[homeBody](t, w).Data.Keyword)

	w = s.do(t, http.MethodPost, "/api/v1/home/search?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results, ok := decode[homeBody](t, w).Data.Search.Data()
	require.True(t, ok)
	require.Len(t, results, 2)

	w = s.do(t, http.MethodPost, "/api/v1/home/toggle?wait=true", results[1])
	require.Equal(t, http.StatusOK, w.Code)
	home = decode[homeBody](t, w)
	assert.True(t, home.Data.SaveToggle.IsSuccess())
	results, _ = home.Data.Search.Data()
	assert.False(t, results[0].IsSaved)
	assert.True(t, results[1].IsSaved)

	w = s.do(t, http.MethodPost, "/api/v1/home/select?wait=true", results[0])
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[homeBody](t, w).Data.PreviewSave.IsSuccess())

	w = s.do(t, http.MethodGet, "/api/v1/preview", nil)
	preview := decode[struct {
		Data *domain.Repository `json:"data"`
	}](t, w)
	assert.Equal(t, int64(1), preview.Data.ID)

	// a removal through the saved routes refreshes the session flags
	w = s.do(t, http.MethodDelete, "/api/v1/saved/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/home/refresh?wait=true", nil)
	results, _ = decode[homeBody](t, w).Data.Search.Data()
	assert.False(t, results[1].IsSaved)

	w = s.do(t, http.MethodDelete, "/api/v1/home/keyword", nil)
	home = decode[homeBody](t, w)
	assert.Equal(t, "", home.Data.Keyword)
	results, ok = home.Data.Search.Data()
	assert.True(t, ok)
	assert.Empty(t, results)
}

func TestHomeSearchAccepted(t *testing.T) {
	s := newTestServer(t, fixedSearcher(1))

	s.do(t, http.MethodPut, "/api/v1/home/keyword", map[string]string{"keyword": "go"})
	w := s.do(t, http.MethodPost, "/api/v1/home/search", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	s.home.Wait()
	w = s.do(t, http.MethodGet, "/api/v1/home", nil)
	results, ok := decode[homeBody](t, w).Data.Search.Data()
	assert.True(t, ok)
	assert.Len(t, results, 1)
}

func TestHomeEvents(t *testing.T) {
	s := newTestServer(t, fixedSearcher(7))
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/home/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimPrefix(line, "data:")
			case line == "" && event != "":
				return event, data
			}
		}
	}

	event, _ := readEvent()
	require.Equal(t, "snapshot", event)

	s.home.UpdateKeyword("go")
	s.home.Search()

	var searchEvents []string
	for len(searchEvents) < 2 {
		event, data := readEvent()
		if event == "search" {
			searchEvents = append(searchEvents, data)
		}
	}

	var first, second domain.Response[[]*domain.Repository]
	require.NoError(t, json.Unmarshal([]byte(searchEvents[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(searchEvents[1]), &second))
	assert.True(t, first.IsLoading())
	results, ok := second.Data()
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, int64(7), results[0].ID)
}

func TestRecoveryReturnsGenericError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := gin.New()
	router.Use(Recovery(logger))
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, apperrors.ErrCodeGeneric, body.Error.Code)
	assert.True(t, body.Error.Retryable)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, fixedSearcher())

	w := s.do(t, http.MethodOptions, "/api/v1/saved", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
