package recommend

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"food-recommender/internal/core/food"
	recommendService "food-recommender/internal/core/recommend"
	"food-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecommender struct {
	result   *recommendService.Result
	err      error
	criteria recommendService.Criteria
	calls    int
}

func (s *stubRecommender) Recommend(ctx context.Context, criteria recommendService.Criteria) (*recommendService.Result, error) {
	s.calls++
	s.criteria = criteria
	return s.result, s.err
}

func newTestRouter(svc Recommender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/recommend", NewHandler(svc, false).HandleRecommend)
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommend", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleRecommendSuccess(t *testing.T) {
	svc := &stubRecommender{result: &recommendService.Result{
		Columns: []string{food.ColumnIngredients, food.ColumnCaloriesPerServing, recommendService.ColumnRankingScore},
		Rows: []recommendService.Row{
			{Ingredients: "beef,cheese", CaloriesPerServing: 250, RankingScore: 4},
		},
		Matched: 7,
	}}
	router := newTestRouter(svc)

	w := post(router, `{"include_ingredient":"beef,cheese","prioritize_ingredient":true,"top_n":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 7, resp.Matched)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "beef,cheese", resp.Rows[0][food.ColumnIngredients])
	assert.EqualValues(t, 4, resp.Rows[0][recommendService.ColumnRankingScore])

	assert.Equal(t, "beef,cheese", svc.criteria.Include[recommendService.FacetIngredient])
	assert.True(t, svc.criteria.Priority[recommendService.FacetIngredient])
	assert.Equal(t, 1, svc.criteria.TopN)
}

func TestHandleRecommendMalformedJSON(t *testing.T) {
	svc := &stubRecommender{}
	w := post(newTestRouter(svc), `{"include_ingredient":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.ErrCodeInvalidRequest, resp.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestHandleRecommendRejectsNegativeTopN(t *testing.T) {
	svc := &stubRecommender{}
	w := post(newTestRouter(svc), `{"top_n":-1}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestHandleRecommendUnknownNegativeFacet(t *testing.T) {
	svc := &stubRecommender{}
	w := post(newTestRouter(svc), `{"negative_prompt":{"Colour":"red"}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.ErrCodeInvalidCriteria, resp.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestHandleRecommendServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		status   int
	}{
		{
			name:     "invalid criteria",
			err:      common.NewInvalidCriteriaError("top_n", "must not exceed 100"),
			wantCode: common.ErrCodeInvalidCriteria,
			status:   http.StatusBadRequest,
		},
		{
			name:     "data source",
			err:      common.NewDataSourceError("food.xlsx", "cannot read file", errors.New("no such file")),
			wantCode: common.ErrCodeDataSource,
			status:   http.StatusServiceUnavailable,
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: common.ErrCodeInternalError,
			status:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newTestRouter(&stubRecommender{err: tt.err}), `{}`)

			assert.Equal(t, tt.status, w.Code)
			var resp common.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.status >= http.StatusInternalServerError {
				assert.Empty(t, resp.Details)
			}
		})
	}
}

func TestHandleRecommendEmptyResult(t *testing.T) {
	svc := &stubRecommender{result: &recommendService.Result{
		Columns: []string{food.ColumnIngredients},
	}}
	w := post(newTestRouter(svc), `{"exclude_ingredient":"beef"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Rows)
}
