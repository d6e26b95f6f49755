package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache"
	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache/file"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		HHAPIBaseURL: baseURL,
		HHAuthURL:    baseURL + "/oauth/token",
		HHUserAgent:  "test-agent/1.0",
		HHAPITimeout: 5 * time.Second,
		HHArea:       113,
		HHPerPage:    100,
		CacheTTL:     time.Hour,
	}
}

func TestSearchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vacancies", r.URL.Path)
		assert.Equal(t, "Аналитик данных", r.URL.Query().Get("text"))
		assert.Equal(t, "113", r.URL.Query().Get("area"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"items": [{"id": "10", "name": "Analyst"}], "found": 250, "pages": 3, "page": 2, "per_page": 100}`)
	}))
	defer srv.Close()

	client := NewVacancyClient(zap.NewNop(), testConfig(srv.URL), nil)
	page, err := client.SearchPage(context.Background(), "Аналитик данных", 2)
	require.NoError(t, err)

	assert.Equal(t, 250, page.Found)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "10", page.Items[0].ID())
}

func TestTokenIsRequestedOnce(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			atomic.AddInt32(&tokenCalls, 1)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "id", r.PostForm.Get("client_id"))
			fmt.Fprint(w, `{"access_token": "secret-token"}`)
		default:
			assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"items": [], "found": 0, "pages": 0}`)
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.HHClientID = "id"
	cfg.HHClientSecret = "secret"
	client := NewVacancyClient(zap.NewNop(), cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := client.SearchPage(context.Background(), "q", i)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls))
}

func TestTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.HHClientID = "id"
	cfg.HHClientSecret = "wrong"
	_, err := NewVacancyClient(zap.NewNop(), cfg, nil).SearchPage(context.Background(), "q", 0)
	assert.True(t, errors.Is(err, errors.ErrTypeUnauthorized))
}

func TestVacancyUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/vacancies/42", r.URL.Path)
		fmt.Fprint(w, `{"id": "42", "name": "Data Analyst", "key_skills": [{"name": "SQL"}]}`)
	}))
	defer srv.Close()

	store, err := file.New(cache.Options{FilePath: filepath.Join(t.TempDir(), "details.json")})
	require.NoError(t, err)
	client := NewVacancyClient(zap.NewNop(), testConfig(srv.URL), store)

	for i := 0; i < 2; i++ {
		detail, err := client.Vacancy(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "Data Analyst", detail["name"])
		assert.Equal(t, "42", detail.ID())
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestVacancyStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   errors.ErrorType
	}{
		{http.StatusNotFound, errors.ErrTypeNotFound},
		{http.StatusForbidden, errors.ErrTypeUnauthorized},
		{http.StatusTooManyRequests, errors.ErrTypeRateLimit},
		{http.StatusInternalServerError, errors.ErrTypeInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewVacancyClient(zap.NewNop(), testConfig(srv.URL), nil).Vacancy(context.Background(), "1")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
