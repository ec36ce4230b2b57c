package food

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"food-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// 支援的資料格式
const (
	formatWorkbook = "workbook"
	formatCSV      = "csv"
)

// Loader 將資料來源讀入記憶體資料表
type Loader struct {
	client *resty.Client
}

// NewLoader 創建資料載入器，fetchTimeout 用於遠端來源
func NewLoader(fetchTimeout time.Duration) *Loader {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(fetchTimeout).
		SetHeader("User-Agent", "food-recommender")

	return &Loader{client: client}
}

// Load 讀取所有工作表並依來源順序合併為單一資料表
func (l *Loader) Load(ctx context.Context, source string) (*Table, error) {
	start := time.Now()
	table, err := l.load(ctx, source)
	common.LogDatasetLoad(source, table.Len(), time.Since(start), err)
	return table, err
}

func (l *Loader) load(ctx context.Context, source string) (*Table, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, common.NewDataSourceError(source, "empty source", nil)
	}

	var (
		data []byte
		name string
		err  error
	)
	if isRemote(source) {
		data, name, err = l.fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
		name = filepath.Base(source)
		if err != nil {
			err = common.NewDataSourceError(source, "cannot read file", err)
		}
	}
	if err != nil {
		return nil, err
	}

	builder := newTableBuilder(source)
	switch formatOf(name) {
	case formatWorkbook:
		err = builder.readWorkbook(bytes.NewReader(data))
	case formatCSV:
		err = builder.readCSV(bytes.NewReader(data), strings.TrimSuffix(name, path.Ext(name)))
	default:
		return nil, common.NewDataSourceError(source, fmt.Sprintf("unsupported format %q", path.Ext(name)), nil)
	}
	if err != nil {
		return nil, err
	}

	return builder.finish()
}

// fetch 下載遠端資料來源
func (l *Loader) fetch(ctx context.Context, source string) ([]byte, string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, "", common.NewDataSourceError(source, "invalid url", err)
	}

	resp, err := l.client.R().SetContext(ctx).Get(source)
	if err != nil {
		return nil, "", common.NewDataSourceError(source, "fetch failed", err)
	}
	if resp.IsError() {
		return nil, "", common.NewDataSourceError(source, fmt.Sprintf("fetch returned status %d", resp.StatusCode()), nil)
	}

	common.LogDebug("遠端資料集下載完成",
		zap.String("source", source),
		zap.Int("bytes", len(resp.Body())),
	)

	return resp.Body(), path.Base(u.Path), nil
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func formatOf(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx", ".xlsm":
		return formatWorkbook
	case ".csv":
		return formatCSV
	default:
		return ""
	}
}

// tableBuilder 逐個分區累積資料列
type tableBuilder struct {
	table *Table
	seen  map[string]bool
	// partitions 含有熱量欄位的分區數
	partitions int
}

func newTableBuilder(source string) *tableBuilder {
	return &tableBuilder{
		table: &Table{Source: source},
		seen:  make(map[string]bool),
	}
}

// readWorkbook 依工作表順序讀取活頁簿
func (b *tableBuilder) readWorkbook(r io.Reader) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return common.NewDataSourceError(b.table.Source, "cannot parse workbook", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return common.NewDataSourceError(b.table.Source, fmt.Sprintf("cannot read sheet %q", sheet), err)
		}
		if err := b.appendPartition(sheet, rows); err != nil {
			return err
		}
	}
	return nil
}

// readCSV 讀取單一分區的 CSV
func (b *tableBuilder) readCSV(r io.Reader, partition string) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return common.NewDataSourceError(b.table.Source, "cannot parse csv", err)
	}
	return b.appendPartition(partition, rows)
}

// finish 至少要有一個分區帶有熱量欄位
func (b *tableBuilder) finish() (*Table, error) {
	if b.partitions == 0 {
		return nil, common.NewDataSourceError(b.table.Source,
			fmt.Sprintf("no %s column in any sheet", ColumnCaloriesPerServing), nil)
	}
	return b.table, nil
}

// appendPartition 第一個非空列視為表頭，沒有表頭或熱量欄位的分區直接略過
func (b *tableBuilder) appendPartition(partition string, rows [][]string) error {
	headerIdx := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	headers := make([]string, len(rows[headerIdx]))
	hasCalories := false
	for j, raw := range rows[headerIdx] {
		headers[j] = canonicalColumn(raw)
		if headers[j] == ColumnCaloriesPerServing {
			hasCalories = true
		}
	}
	if !hasCalories {
		common.LogWarn("略過沒有熱量欄位的工作表",
			zap.String("source", b.table.Source),
			zap.String("sheet", partition),
		)
		return nil
	}
	b.partitions++

	for _, header := range headers {
		if header != "" && !b.seen[header] {
			b.seen[header] = true
			b.table.Columns = append(b.table.Columns, header)
		}
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		item, err := b.parseItem(partition, i+1, headers, rows[i])
		if err != nil {
			return err
		}
		b.table.Items = append(b.table.Items, item)
	}
	return nil
}

func (b *tableBuilder) parseItem(partition string, line int, headers []string, row []string) (Item, error) {
	item := Item{Sheet: partition}

	for j, header := range headers {
		if header == "" {
			continue
		}
		value := ""
		if j < len(row) {
			value = strings.TrimSpace(row[j])
		}

		switch header {
		case ColumnNo:
			item.No = value
		case ColumnIngredients:
			item.Ingredients = value
		case ColumnUserType:
			item.UserType = value
		case ColumnTaste:
			item.Taste = value
		case ColumnServing:
			item.Serving = value
		case ColumnCalories:
			item.Calories = value
		case ColumnCaloriesPerServing:
			calories, err := parseCalories(value)
			if err != nil {
				return Item{}, common.NewDataSourceError(b.table.Source,
					fmt.Sprintf("sheet %q row %d: invalid %s %q", partition, line, ColumnCaloriesPerServing, value), err)
			}
			item.CaloriesPerServing = calories
		default:
			if value == "" {
				continue
			}
			if item.Extra == nil {
				item.Extra = make(map[string]string)
			}
			item.Extra[header] = value
		}
	}

	return item, nil
}

func parseCalories(value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("calories must be a positive number")
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
