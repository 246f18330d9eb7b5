package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"recipe-categorizer/internal/infrastructure/config"
)

// DefaultTTL 未指定存活時間時的預設值
const DefaultTTL = 5 * time.Minute

// Store 快取後端的公開契約
// 快取只是加速層，任何後端故障都以未命中處理，不會往上拋錯
type Store interface {
	// Get 讀取快取值，未命中、過期或後端錯誤時回傳 false
	Get(ctx context.Context, key string) (string, bool)
	// Set 寫入快取值，ttl 為 0 時使用 DefaultTTL，失敗回傳 false
	Set(ctx context.Context, key, value string, ttl time.Duration) bool
	// Delete 刪除快取值
	Delete(ctx context.Context, key string) bool
	// Clear 清空所有快取條目
	Clear(ctx context.Context) bool
	// Metrics 回傳統計快照，可併發調用
	Metrics() Metrics
	// Close 釋放資源，可重複調用
	Close() error
}

// Metrics 快取統計快照
type Metrics struct {
	Hits            int64   `json:"hits"`
	Misses          int64   `json:"misses"`
	Sets            int64   `json:"sets"`
	Deletes         int64   `json:"deletes"`
	Errors          int64   `json:"errors"`
	TotalOperations int64   `json:"total_operations"`
	HitRate         float64 `json:"hit_rate"`
	Size            int     `json:"size"`
}

// counters 以原子操作維護的進程級計數器
type counters struct {
	hits    int64
	misses  int64
	sets    int64
	deletes int64
	errors  int64
}

func (c *counters) hit()    { atomic.AddInt64(&c.hits, 1) }
func (c *counters) miss()   { atomic.AddInt64(&c.misses, 1) }
func (c *counters) set()    { atomic.AddInt64(&c.sets, 1) }
func (c *counters) delete() { atomic.AddInt64(&c.deletes, 1) }
func (c *counters) error()  { atomic.AddInt64(&c.errors, 1) }

// snapshot 計算統計快照，hitRate = hits/(hits+misses)
func (c *counters) snapshot(size int) Metrics {
	m := Metrics{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Sets:    atomic.LoadInt64(&c.sets),
		Deletes: atomic.LoadInt64(&c.deletes),
		Errors:  atomic.LoadInt64(&c.errors),
		Size:    size,
	}
	m.TotalOperations = m.Hits + m.Misses + m.Sets + m.Deletes
	if lookups := m.Hits + m.Misses; lookups > 0 {
		m.HitRate = float64(m.Hits) / float64(lookups)
	}
	return m
}

// New 依設定選擇快取後端
func New(cfg *config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(cfg), nil
	case "redis":
		return NewRedis(cfg)
	case "none", "":
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// HashKey 計算快取鍵的 SHA-256 哈希值
func HashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
