package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"food-recommender/internal/core/food"
	"food-recommender/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "No,Ingredients,User type,Taste,Calories/Serving,Serving,Calories\n" +
	"1,\"beef,cheese\",gain,rich,250,100g,250\n" +
	"2,chicken,normal,mild,180,100g,180\n" +
	"3,pork,normal,salty,230,100g,230\n"

func testConfig(source string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Version: "test"},
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Dataset:   config.DatasetConfig{Source: source, FetchTimeout: time.Second},
		Recommend: config.RecommendConfig{DefaultTopN: 5, MaxTopN: 10},
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 100, Window: time.Minute},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func setupTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "food.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	cfg := testConfig(path)
	ds := food.NewDataset(path, food.NewLoader(cfg.Dataset.FetchTimeout), nil)
	router, err := SetupRouter(cfg, ds)
	require.NoError(t, err)
	return router, path
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupRouterRequiresDependencies(t *testing.T) {
	_, err := SetupRouter(nil, nil)
	assert.Error(t, err)
}

func TestRecommendEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/recommend",
		`{"include_ingredient":"beef","exclude_ingredient":"pork","desired_calories":500}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Columns []string                 `json:"columns"`
		Rows    []map[string]interface{} `json:"rows"`
		Count   int                      `json:"count"`
		Matched int                      `json:"matched"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 2, resp.Matched)
	assert.Equal(t, "beef,cheese", resp.Rows[0]["Ingredients"])
	assert.EqualValues(t, 1, resp.Rows[0]["Ranking Score"])
	assert.Equal(t, "2 gram", resp.Rows[0]["Serving Size (grams)"])
	assert.NotContains(t, resp.Columns, "No")
	assert.NotContains(t, resp.Columns, "Calories")
	assert.Contains(t, resp.Columns, "Serving Size (grams)")
}

func TestRecommendEndpointRejectsTopNAboveMax(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/recommend", `{"top_n":50}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendEndpointMissingDataset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	missing := filepath.Join(t.TempDir(), "missing.xlsx")
	cfg := testConfig(missing)
	router, err := SetupRouter(cfg, food.NewDataset(missing, food.NewLoader(time.Second), nil))
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/v1/recommend", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDatasetEndpoints(t *testing.T) {
	router, path := setupTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/dataset", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats food.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.False(t, stats.Loaded)
	assert.Equal(t, path, stats.Source)

	w = do(router, http.MethodPost, "/api/v1/dataset/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.True(t, stats.Loaded)
	assert.Equal(t, 3, stats.Rows)

	// 檔案更新後重新載入應反映新內容
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"4,tofu,losing,fresh,90,100g,90\n"), 0644))
	w = do(router, http.MethodPost, "/api/v1/dataset/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, int64(2), stats.LoadCount)
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = do(router, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rows":3`)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	do(router, http.MethodPost, "/api/v1/recommend", `{}`)
	w := do(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "food_recommendations_total")
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}
