package cache

import (
	"context"
	"time"
)

// Noop 停用快取時的後端：所有讀取都未命中，所有寫入都成功
// 調用方必須在兩種後端下都正確運作，快取永遠不是資料來源
type Noop struct {
	stats counters
}

// NewNoop 創建 no-op 快取後端
func NewNoop() *Noop {
	return &Noop{}
}

// Get 永遠未命中
func (n *Noop) Get(ctx context.Context, key string) (string, bool) {
	n.stats.miss()
	return "", false
}

// Set 不儲存任何內容但回報成功
func (n *Noop) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	n.stats.set()
	return true
}

// Delete 無事可做
func (n *Noop) Delete(ctx context.Context, key string) bool {
	n.stats.delete()
	return true
}

// Clear 無事可做
func (n *Noop) Clear(ctx context.Context) bool {
	return true
}

// Metrics 獲取統計信息
func (n *Noop) Metrics() Metrics {
	return n.stats.snapshot(0)
}

// Close 無資源可釋放
func (n *Noop) Close() error {
	return nil
}
