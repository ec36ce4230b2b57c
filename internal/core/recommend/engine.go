package recommend

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"food-recommender/internal/core/food"
)

// 輸出欄位
const (
	ColumnRankingScore = "Ranking Score"
	ColumnServingSize  = "Serving Size (grams)"
)

// hiddenColumns 不顯示給使用者的欄位
var hiddenColumns = map[string]bool{
	food.ColumnNo:       true,
	food.ColumnServing:  true,
	food.ColumnCalories: true,
}

// Row 推薦結果的一列
type Row struct {
	Ingredients        string            `json:"ingredients"`
	UserType           string            `json:"user_type"`
	Taste              string            `json:"taste"`
	CaloriesPerServing float64           `json:"calories_per_serving"`
	RankingScore       int               `json:"ranking_score"`
	ServingSize        string            `json:"serving_size,omitempty"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// Cell 依欄位名稱取得顯示值
func (r Row) Cell(column string) string {
	switch column {
	case food.ColumnIngredients:
		return r.Ingredients
	case food.ColumnUserType:
		return r.UserType
	case food.ColumnTaste:
		return r.Taste
	case food.ColumnCaloriesPerServing:
		return strconv.FormatFloat(r.CaloriesPerServing, 'f', -1, 64)
	case ColumnRankingScore:
		return strconv.Itoa(r.RankingScore)
	case ColumnServingSize:
		return r.ServingSize
	default:
		return r.Extra[column]
	}
}

// Result 排序後的推薦結果
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	// Matched 通過篩選的總列數（截斷前）
	Matched int `json:"matched"`
}

// Records 以欄位名稱為鍵輸出每一列
func (r *Result) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		record := make(map[string]interface{}, len(r.Columns))
		for _, col := range r.Columns {
			switch col {
			case food.ColumnCaloriesPerServing:
				record[col] = row.CaloriesPerServing
			case ColumnRankingScore:
				record[col] = row.RankingScore
			default:
				record[col] = row.Cell(col)
			}
		}
		records = append(records, record)
	}
	return records
}

// candidate 工作副本，不修改原始資料表
type candidate struct {
	item  *food.Item
	score int
}

var seedCounter atomic.Int64

// NewRand 每次呼叫建立獨立的亂數產生器
func NewRand() *rand.Rand {
	seed := time.Now().UnixNano() ^ (seedCounter.Add(1) << 32)
	return rand.New(rand.NewSource(seed)) //nolint:gosec // math/rand is fine for tie shuffling
}

// Recommend 依條件評分、篩選並排序資料表
//
// rng 只用於打散最高分群組，nil 時每次建立新的產生器。
func Recommend(table *food.Table, criteria Criteria, rng *rand.Rand) (*Result, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand()
	}
	topN := criteria.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	candidates := caloriesBucket(table, criteria.CalorieTarget)

	// 加分
	for _, facet := range Facets {
		inc := criteria.increment(facet)
		for _, term := range splitTerms(criteria.Include[facet]) {
			for i := range candidates {
				if containsTerm(facet.value(candidates[i].item), term) {
					candidates[i].score += inc
				}
			}
		}
	}

	// 排除為硬性篩選，在加分之後執行
	kept := candidates[:0]
	for _, c := range candidates {
		if !isExcluded(c.item, criteria.Exclude) {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})
	shuffleTopGroup(kept, rng)

	result := &Result{
		Columns: outputColumns(table, criteria.DesiredCalories != nil),
		Matched: len(kept),
	}
	if len(kept) > topN {
		kept = kept[:topN]
	}

	result.Rows = make([]Row, 0, len(kept))
	for _, c := range kept {
		row := Row{
			Ingredients:        c.item.Ingredients,
			UserType:           c.item.UserType,
			Taste:              c.item.Taste,
			CaloriesPerServing: c.item.CaloriesPerServing,
			RankingScore:       c.score,
			Extra:              c.item.Extra,
		}
		if criteria.DesiredCalories != nil {
			row.ServingSize = ServingSize(*criteria.DesiredCalories, c.item.CaloriesPerServing)
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// caloriesBucket 只保留熱量首位數字與目標相同的列
//
// 以字串首字元比較，是刻意的粗略分組（99 與 100 分屬不同組）。
func caloriesBucket(table *food.Table, target *int) []candidate {
	candidates := make([]candidate, 0, table.Len())
	if table == nil {
		return candidates
	}

	prefix := ""
	if target != nil {
		prefix = strconv.Itoa(*target)[:1]
	}
	for i := range table.Items {
		item := &table.Items[i]
		if prefix != "" && !strings.HasPrefix(item.CaloriesString(), prefix) {
			continue
		}
		candidates = append(candidates, candidate{item: item})
	}
	return candidates
}

func isExcluded(item *food.Item, exclude FacetTerms) bool {
	for _, facet := range Facets {
		for _, term := range splitTerms(exclude[facet]) {
			if containsTerm(facet.value(item), term) {
				return true
			}
		}
	}
	return false
}

// containsTerm 不分大小寫的子字串比對，空欄位永不命中
func containsTerm(field, term string) bool {
	if field == "" || term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), term)
}

// shuffleTopGroup 打散最高分的同分群組，其餘保持原順序
func shuffleTopGroup(sorted []candidate, rng *rand.Rand) {
	if len(sorted) < 2 {
		return
	}
	top := sorted[0].score
	n := 1
	for n < len(sorted) && sorted[n].score == top {
		n++
	}
	rng.Shuffle(n, func(i, j int) {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	})
}

func outputColumns(table *food.Table, withServing bool) []string {
	var columns []string
	if table != nil {
		for _, col := range table.Columns {
			if !hiddenColumns[col] {
				columns = append(columns, col)
			}
		}
	}
	columns = append(columns, ColumnRankingScore)
	if withServing {
		columns = append(columns, ColumnServingSize)
	}
	return columns
}

// ServingSize 以無條件進位計算達到目標熱量所需份量
func ServingSize(desired, caloriesPerServing float64) string {
	if caloriesPerServing <= 0 {
		return ""
	}
	return fmt.Sprintf("%d gram", int64(math.Ceil(desired/caloriesPerServing)))
}
