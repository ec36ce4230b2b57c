package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"food-recommender/internal/core/food"
	"food-recommender/internal/infrastructure/config"
	"food-recommender/internal/metrics"
	"food-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// TableSource 提供目前的資料表
type TableSource interface {
	Table(ctx context.Context) (*food.Table, error)
}

// Service 推薦服務
type Service struct {
	tables      TableSource
	defaultTopN int
	maxTopN     int
	newRand     func() *rand.Rand
}

// NewService 創建推薦服務
func NewService(tables TableSource, cfg config.RecommendConfig) *Service {
	defaultTopN := cfg.DefaultTopN
	if defaultTopN <= 0 {
		defaultTopN = DefaultTopN
	}
	return &Service{
		tables:      tables,
		defaultTopN: defaultTopN,
		maxTopN:     cfg.MaxTopN,
		newRand:     NewRand,
	}
}

// WithRand 替換亂數來源，測試用
func (s *Service) WithRand(newRand func() *rand.Rand) *Service {
	s.newRand = newRand
	return s
}

// Recommend 載入資料表並執行推薦
func (s *Service) Recommend(ctx context.Context, criteria Criteria) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	if criteria.TopN == 0 {
		criteria.TopN = s.defaultTopN
	}
	if s.maxTopN > 0 && criteria.TopN > s.maxTopN {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeInvalidCriteria).Inc()
		return nil, common.NewInvalidCriteriaError("top_n", fmt.Sprintf("must not exceed %d", s.maxTopN))
	}
	if err := criteria.Validate(); err != nil {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeInvalidCriteria).Inc()
		return nil, err
	}

	table, err := s.tables.Table(ctx)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeDataSourceError).Inc()
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	result, err := Recommend(table, criteria, s.newRand())
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if len(result.Rows) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
	metrics.RecommendationRows.Observe(float64(len(result.Rows)))

	common.LogDebug("推薦完成",
		zap.Int("table_rows", table.Len()),
		zap.Int("matched", result.Matched),
		zap.Int("returned", len(result.Rows)),
		zap.Duration("耗時", time.Since(start)),
	)

	return result, nil
}
