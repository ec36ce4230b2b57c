package food

import (
	"strconv"
	"strings"
)

// 資料集欄位名稱
const (
	ColumnNo                 = "No"
	ColumnIngredients        = "Ingredients"
	ColumnUserType           = "User type"
	ColumnTaste              = "Taste"
	ColumnCaloriesPerServing = "Calories/Serving"
	ColumnServing            = "Serving"
	ColumnCalories           = "Calories"
)

// knownColumns 以小寫欄名對應標準欄名
var knownColumns = map[string]string{
	"no":               ColumnNo,
	"ingredients":      ColumnIngredients,
	"user type":        ColumnUserType,
	"taste":            ColumnTaste,
	"calories/serving": ColumnCaloriesPerServing,
	"serving":          ColumnServing,
	"calories":         ColumnCalories,
}

// Item 資料集中的一列食物
type Item struct {
	No                 string            `json:"no,omitempty"`
	Ingredients        string            `json:"ingredients"`
	UserType           string            `json:"user_type"`
	Taste              string            `json:"taste"`
	CaloriesPerServing float64           `json:"calories_per_serving"`
	Serving            string            `json:"serving,omitempty"`
	Calories           string            `json:"calories,omitempty"`
	Extra              map[string]string `json:"extra,omitempty"`
	Sheet              string            `json:"sheet"`
}

// CaloriesString 以最短十進位表示熱量，整數不帶小數點
func (i Item) CaloriesString() string {
	return strconv.FormatFloat(i.CaloriesPerServing, 'f', -1, 64)
}

// Table 載入後的資料表，載入完成後不可修改
type Table struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Items   []Item   `json:"items"`
}

// Len 回傳列數
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Items)
}

// ExtraColumns 回傳非標準欄位，依首次出現順序
func (t *Table) ExtraColumns() []string {
	if t == nil {
		return nil
	}
	var extra []string
	for _, col := range t.Columns {
		if _, ok := knownColumns[strings.ToLower(col)]; !ok {
			extra = append(extra, col)
		}
	}
	return extra
}

// canonicalColumn 將表頭正規化為標準欄名，未知欄位保持原樣
func canonicalColumn(header string) string {
	header = strings.TrimSpace(header)
	if name, ok := knownColumns[strings.ToLower(header)]; ok {
		return name
	}
	return header
}
