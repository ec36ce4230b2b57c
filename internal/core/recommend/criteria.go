package recommend

import (
	"math"
	"strconv"
	"strings"

	"food-recommender/internal/core/food"
	"food-recommender/internal/pkg/common"
)

// DefaultTopN 未指定時回傳的筆數
const DefaultTopN = 5

// Facet 偏好維度
type Facet int

const (
	FacetIngredient Facet = iota
	FacetUserType
	FacetTaste

	facetCount
)

// Facets 依評分順序列出所有維度
var Facets = []Facet{FacetIngredient, FacetUserType, FacetTaste}

// String 回傳維度標籤
func (f Facet) String() string {
	switch f {
	case FacetIngredient:
		return "Ingredient"
	case FacetUserType:
		return "User Type"
	case FacetTaste:
		return "Taste"
	default:
		return "Facet(" + strconv.Itoa(int(f)) + ")"
	}
}

// value 取得資料列對應欄位
func (f Facet) value(item *food.Item) string {
	switch f {
	case FacetIngredient:
		return item.Ingredients
	case FacetUserType:
		return item.UserType
	case FacetTaste:
		return item.Taste
	default:
		return ""
	}
}

// ParseFacet 解析維度標籤，不分大小寫
func ParseFacet(label string) (Facet, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch normalized {
	case "ingredient", "ingredients":
		return FacetIngredient, nil
	case "user type", "usertype", "user types":
		return FacetUserType, nil
	case "taste", "tastes":
		return FacetTaste, nil
	default:
		return 0, common.NewInvalidCriteriaError("facet", "unknown facet "+strconv.Quote(label))
	}
}

// FacetTerms 每個維度一組以逗號分隔的詞
type FacetTerms [facetCount]string

// FacetFlags 每個維度一個布林值
type FacetFlags [facetCount]bool

// Criteria 單次推薦的條件，建立後不應修改
type Criteria struct {
	// CalorieTarget 以首位數字分組的熱量目標
	CalorieTarget   *int
	Include         FacetTerms
	Exclude         FacetTerms
	Priority        FacetFlags
	TopN            int
	DesiredCalories *float64
}

// Validate 檢查條件是否合法
func (c Criteria) Validate() error {
	if c.CalorieTarget != nil && *c.CalorieTarget < 0 {
		return common.NewInvalidCriteriaError("calories_per_100", "must not be negative")
	}
	if c.DesiredCalories != nil {
		v := *c.DesiredCalories
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return common.NewInvalidCriteriaError("desired_calories", "must be a non-negative number")
		}
	}
	if c.TopN < 0 {
		return common.NewInvalidCriteriaError("top_n", "must not be negative")
	}
	return nil
}

// increment 回傳該維度每個命中詞的加分
func (c Criteria) increment(f Facet) int {
	if c.Priority[f] {
		return 2
	}
	return 1
}

// ParseCalorieTarget 解析熱量目標，空字串回傳 nil
func ParseCalorieTarget(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, common.NewInvalidCriteriaError("calories_per_100", strconv.Quote(raw)+" is not a number")
	}
	return CalorieTargetFromFloat(v)
}

// CalorieTargetFromFloat 取整數部分作為熱量目標
func CalorieTargetFromFloat(v float64) (*int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > math.MaxInt32 {
		return nil, common.NewInvalidCriteriaError("calories_per_100", "must be a non-negative number")
	}
	target := int(v)
	return &target, nil
}

// ExcludeFromMap 將維度標籤對應的排除詞轉為 FacetTerms
func ExcludeFromMap(negative map[string]string) (FacetTerms, error) {
	var terms FacetTerms
	for label, value := range negative {
		if strings.TrimSpace(value) == "" {
			continue
		}
		facet, err := ParseFacet(label)
		if err != nil {
			return FacetTerms{}, err
		}
		terms[facet] = joinTerms(terms[facet], value)
	}
	return terms, nil
}

// joinTerms 合併兩組以逗號分隔的詞
func joinTerms(a, b string) string {
	switch {
	case strings.TrimSpace(a) == "":
		return b
	case strings.TrimSpace(b) == "":
		return a
	default:
		return a + "," + b
	}
}

// splitTerms 以逗號切分、去空白並轉小寫，略過空詞
func splitTerms(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		term := strings.ToLower(strings.TrimSpace(part))
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
