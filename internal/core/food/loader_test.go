package food

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"food-recommender/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []interface{}{"No", "Ingredients", "User type", "Taste", "Calories/Serving", "Serving", "Calories"}

// writeWorkbook 依序建立工作表並寫入資料列
func writeWorkbook(t *testing.T, sheets map[string][][]interface{}, order []string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	path := filepath.Join(t.TempDir(), "food.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadWorkbookUnionsSheetsInOrder(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Beef": {
			header,
			{1, "beef,rice", "gain", "rich", 220, "100g", 220},
			{2, "beef,cheese", "athlete", "savory", 310, "100g", 310},
		},
		"Chicken": {
			header,
			{1, "chicken", "normal", "mild", 180, "100g", 180},
		},
		"Empty": {},
	}, []string{"Beef", "Chicken", "Empty"})

	table, err := NewLoader(time.Second).Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, "beef,rice", table.Items[0].Ingredients)
	assert.Equal(t, "Beef", table.Items[0].Sheet)
	assert.Equal(t, "beef,cheese", table.Items[1].Ingredients)
	assert.Equal(t, "chicken", table.Items[2].Ingredients)
	assert.Equal(t, "Chicken", table.Items[2].Sheet)

	assert.Equal(t, 220.0, table.Items[0].CaloriesPerServing)
	assert.Equal(t, "gain", table.Items[0].UserType)
	assert.Equal(t, "rich", table.Items[0].Taste)
	assert.Equal(t, "100g", table.Items[0].Serving)
	assert.Equal(t, "1", table.Items[0].No)

	assert.Equal(t, []string{"No", "Ingredients", "User type", "Taste", "Calories/Serving", "Serving", "Calories"}, table.Columns)
}

func TestLoadWorkbookKeepsExtraColumns(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Menu": {
			{"Name", "ingredients", "USER TYPE", "taste", "calories/serving"},
			{"Steak", "beef", "gain", "rich", 250.5},
			{nil, nil, nil, nil, nil},
			{"Salad", nil, "losing", "fresh", 90},
		},
	}, []string{"Menu"})

	table, err := NewLoader(time.Second).Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, map[string]string{"Name": "Steak"}, table.Items[0].Extra)
	assert.Equal(t, 250.5, table.Items[0].CaloriesPerServing)
	assert.Equal(t, "250.5", table.Items[0].CaloriesString())
	assert.Empty(t, table.Items[1].Ingredients)
	assert.Equal(t, []string{"Name"}, table.ExtraColumns())
	assert.Contains(t, table.Columns, ColumnUserType)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "food.csv")
	content := "No,Ingredients,User type,Taste,Calories/Serving\n" +
		"1,\"beef, rice\",gain,rich,220\n" +
		"2,chicken,normal,mild,180\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := NewLoader(time.Second).Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "beef, rice", table.Items[0].Ingredients)
	assert.Equal(t, "food", table.Items[0].Sheet)
	assert.Equal(t, 180.0, table.Items[1].CaloriesPerServing)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(time.Second).Load(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.True(t, common.IsDataSourceError(err))
}

func TestLoadCorruptWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0644))

	_, err := NewLoader(time.Second).Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, common.IsDataSourceError(err))
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "food.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	_, err := NewLoader(time.Second).Load(context.Background(), path)
	assert.True(t, common.IsDataSourceError(err))
}

func TestLoadInvalidCalories(t *testing.T) {
	tests := map[string]string{
		"non numeric": "No,Ingredients,Calories/Serving\n1,beef,lots\n",
		"empty":       "No,Ingredients,Calories/Serving\n1,beef,\n",
		"zero":        "No,Ingredients,Calories/Serving\n1,beef,0\n",
		"missing col": "No,Ingredients\n1,beef\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "food.csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := NewLoader(time.Second).Load(context.Background(), path)
			require.Error(t, err)
			assert.True(t, common.IsDataSourceError(err))
		})
	}
}

func TestLoadRemoteSource(t *testing.T) {
	csvBody := "Ingredients,User type,Taste,Calories/Serving\nbeef,gain,rich,220\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/food.csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(csvBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(time.Second)

	table, err := loader.Load(context.Background(), server.URL+"/data/food.csv")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "beef", table.Items[0].Ingredients)

	_, err = loader.Load(context.Background(), server.URL+"/data/missing.csv")
	require.Error(t, err)
	assert.True(t, common.IsDataSourceError(err))
}

func TestReadCSVIgnoresLeadingBlankRows(t *testing.T) {
	builder := newTableBuilder("inline")
	err := builder.readCSV(bytes.NewBufferString("\n,,\nIngredients,Calories/Serving\nbeef,100\n"), "inline")
	require.NoError(t, err)
	require.Equal(t, 1, builder.table.Len())
	assert.Equal(t, "beef", builder.table.Items[0].Ingredients)
}

func TestLoadWorkbookSkipsSheetsWithoutCalories(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Notes": {
			{"Author", "Comment"},
			{"chef", "seasonal menu"},
		},
		"Beef": {
			header,
			{1, "beef,rice", "gain", "rich", 220, "100g", 220},
		},
	}, []string{"Notes", "Beef"})

	table, err := NewLoader(time.Second).Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Beef", table.Items[0].Sheet)
	assert.NotContains(t, table.Columns, "Author")
	assert.Empty(t, table.ExtraColumns())
}

func TestLoadWorkbookWithoutCaloriesInAnySheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Notes": {
			{"Author", "Comment"},
			{"chef", "seasonal menu"},
		},
		"Empty": {},
	}, []string{"Notes", "Empty"})

	_, err := NewLoader(time.Second).Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, common.IsDataSourceError(err))
	assert.Contains(t, err.Error(), "no Calories/Serving column")
}
