package food

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"food-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// TableLoader 讀取資料來源
type TableLoader interface {
	Load(ctx context.Context, source string) (*Table, error)
}

// SnapshotStore 跨程序共享的資料表快照，未命中時回傳 nil, nil
type SnapshotStore interface {
	Get(ctx context.Context, key string) (*Table, error)
	Set(ctx context.Context, key string, table *Table) error
	Delete(ctx context.Context, key string) error
}

// Stats 資料集狀態
type Stats struct {
	Source    string    `json:"source"`
	Loaded    bool      `json:"loaded"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	LoadCount int64     `json:"load_count"`
	FromCache bool      `json:"from_cache"`
}

// Dataset 可明確失效的資料表記憶化句柄
type Dataset struct {
	source    string
	loader    TableLoader
	snapshots SnapshotStore

	mu        sync.RWMutex
	table     *Table
	loadedAt  time.Time
	loadCount int64
	fromCache bool
}

// NewDataset 創建資料集句柄，snapshots 可為 nil
func NewDataset(source string, loader TableLoader, snapshots SnapshotStore) *Dataset {
	return &Dataset{
		source:    source,
		loader:    loader,
		snapshots: snapshots,
	}
}

// Source 回傳資料來源
func (d *Dataset) Source() string {
	return d.source
}

// Table 回傳記憶化的資料表，必要時載入
func (d *Dataset) Table(ctx context.Context) (*Table, error) {
	d.mu.RLock()
	table := d.table
	d.mu.RUnlock()
	if table != nil {
		return table, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// 其他 goroutine 可能已完成載入
	if d.table != nil {
		return d.table, nil
	}

	key := SnapshotKey(d.source)
	if d.snapshots != nil {
		cached, err := d.snapshots.Get(ctx, key)
		if err != nil {
			common.LogWarn("讀取資料集快照失敗",
				zap.String("source", d.source),
				zap.Error(err),
			)
		}
		if cached != nil {
			d.remember(cached, true)
			return cached, nil
		}
	}

	loaded, err := d.loader.Load(ctx, d.source)
	if err != nil {
		return nil, err
	}
	d.remember(loaded, false)

	if d.snapshots != nil {
		if err := d.snapshots.Set(ctx, key, loaded); err != nil {
			common.LogWarn("儲存資料集快照失敗",
				zap.String("source", d.source),
				zap.Error(err),
			)
		}
	}

	return loaded, nil
}

func (d *Dataset) remember(table *Table, fromCache bool) {
	d.table = table
	d.loadedAt = time.Now()
	d.loadCount++
	d.fromCache = fromCache
}

// Invalidate 丟棄記憶化的資料表與共享快照
func (d *Dataset) Invalidate(ctx context.Context) error {
	d.mu.Lock()
	d.table = nil
	d.mu.Unlock()

	common.LogInfo("資料集已失效", zap.String("source", d.source))

	if d.snapshots == nil {
		return nil
	}
	return d.snapshots.Delete(ctx, SnapshotKey(d.source))
}

// Reload 失效後立即重新載入
func (d *Dataset) Reload(ctx context.Context) (*Table, error) {
	if err := d.Invalidate(ctx); err != nil {
		common.LogWarn("刪除資料集快照失敗",
			zap.String("source", d.source),
			zap.Error(err),
		)
	}
	return d.Table(ctx)
}

// Stats 回傳資料集狀態
func (d *Dataset) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := Stats{
		Source:    d.source,
		Loaded:    d.table != nil,
		LoadCount: d.loadCount,
		FromCache: d.fromCache,
	}
	if d.table != nil {
		stats.Rows = d.table.Len()
		stats.Columns = d.table.Columns
		stats.LoadedAt = d.loadedAt
	}
	return stats
}

// SnapshotKey 依來源產生快照鍵
func SnapshotKey(source string) string {
	hash := sha256.Sum256([]byte(source))
	return "food:dataset:" + hex.EncodeToString(hash[:])
}
