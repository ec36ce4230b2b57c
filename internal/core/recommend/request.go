package recommend

// Request 推薦請求（HTTP 與 CLI 共用）
type Request struct {
	CaloriesPer100 *float64 `json:"calories_per_100,omitempty" binding:"omitempty,gte=0"` // 熱量分組目標

	IncludeIngredient string `json:"include_ingredient,omitempty"` // 偏好食材，逗號分隔
	IncludeUserType   string `json:"include_user_type,omitempty"`  // 使用者類型
	IncludeTaste      string `json:"include_taste,omitempty"`      // 偏好口味

	ExcludeIngredient string            `json:"exclude_ingredient,omitempty"`
	ExcludeUserType   string            `json:"exclude_user_type,omitempty"`
	ExcludeTaste      string            `json:"exclude_taste,omitempty"`
	NegativePrompt    map[string]string `json:"negative_prompt,omitempty"` // 以維度標籤為鍵的排除詞

	PrioritizeIngredient bool `json:"prioritize_ingredient,omitempty"`
	PrioritizeUserType   bool `json:"prioritize_user_type,omitempty"`
	PrioritizeTaste      bool `json:"prioritize_taste,omitempty"`

	TopN            int      `json:"top_n,omitempty" binding:"gte=0"`
	DesiredCalories *float64 `json:"desired_calories,omitempty" binding:"omitempty,gte=0"`
}

// ToCriteria 轉換為推薦條件
func (r Request) ToCriteria() (Criteria, error) {
	criteria := Criteria{
		Include: FacetTerms{
			FacetIngredient: r.IncludeIngredient,
			FacetUserType:   r.IncludeUserType,
			FacetTaste:      r.IncludeTaste,
		},
		Priority: FacetFlags{
			FacetIngredient: r.PrioritizeIngredient,
			FacetUserType:   r.PrioritizeUserType,
			FacetTaste:      r.PrioritizeTaste,
		},
		TopN:            r.TopN,
		DesiredCalories: r.DesiredCalories,
	}

	if r.CaloriesPer100 != nil {
		target, err := CalorieTargetFromFloat(*r.CaloriesPer100)
		if err != nil {
			return Criteria{}, err
		}
		criteria.CalorieTarget = target
	}

	negative, err := ExcludeFromMap(r.NegativePrompt)
	if err != nil {
		return Criteria{}, err
	}
	criteria.Exclude = FacetTerms{
		FacetIngredient: joinTerms(r.ExcludeIngredient, negative[FacetIngredient]),
		FacetUserType:   joinTerms(r.ExcludeUserType, negative[FacetUserType]),
		FacetTaste:      joinTerms(r.ExcludeTaste, negative[FacetTaste]),
	}

	return criteria, criteria.Validate()
}
