package cache

import (
	"context"
	"sync"
	"time"

	"recipe-categorizer/internal/infrastructure/config"
	"recipe-categorizer/internal/pkg/common"

	"go.uber.org/zap"
)

// Memory 有界的進程內快取，按鍵數上限做 LRU 淘汰
type Memory struct {
	config  *config.CacheConfig
	mu      sync.RWMutex
	store   map[string]memoryEntry
	stats   counters
	done    chan struct{}
	closeMu sync.Once
}

// memoryEntry 快取條目
type memoryEntry struct {
	value       string
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// NewMemory 創建進程內快取
func NewMemory(cfg *config.CacheConfig) *Memory {
	m := &Memory{
		config: cfg,
		store:  make(map[string]memoryEntry),
		done:   make(chan struct{}),
	}

	// 啟動清理過期條目的協程
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.String("backend", "memory"),
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

// Get 讀取快取值
func (m *Memory) Get(ctx context.Context, key string) (string, bool) {
	m.mu.RLock()
	entry, exists := m.store[key]
	m.mu.RUnlock()

	if !exists {
		m.stats.miss()
		return "", false
	}

	// 過期視為未命中，順手刪除
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.store, key)
		m.mu.Unlock()
		m.stats.miss()
		return "", false
	}

	// 更新訪問統計。期間條目可能被併發刪除或覆寫，
	// 要以當下存的為準，不能把讀到的舊值寫回去
	m.mu.Lock()
	if current, ok := m.store[key]; ok {
		current.lastAccess = time.Now()
		current.accessCount++
		m.store[key] = current
	}
	m.mu.Unlock()

	m.stats.hit()
	return entry.value, true
}

// Set 寫入快取值
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 檢查快取大小
	if len(m.store) >= m.config.MaxSize {
		// 先清理過期項目
		if evicted := m.cleanupLocked(); evicted > 0 {
			common.LogDebug("快取清理執行", zap.Int("清理數量", evicted))
		}

		// 如果仍然超過大小限制，執行 LRU 淘汰
		if len(m.store) >= m.config.MaxSize {
			m.evictLRULocked()
		}

		// 仍然沒有空間時放棄寫入
		if len(m.store) >= m.config.MaxSize {
			m.stats.error()
			common.LogWarn("快取已滿", zap.Int("目前容量", len(m.store)))
			return false
		}
	}

	now := time.Now()
	m.store[key] = memoryEntry{
		value:      value,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
	}
	m.stats.set()
	return true
}

// Delete 刪除快取值
func (m *Memory) Delete(ctx context.Context, key string) bool {
	m.mu.Lock()
	delete(m.store, key)
	m.mu.Unlock()
	m.stats.delete()
	return true
}

// Clear 清空所有條目
func (m *Memory) Clear(ctx context.Context) bool {
	m.mu.Lock()
	m.store = make(map[string]memoryEntry)
	m.mu.Unlock()
	return true
}

// Metrics 獲取快取統計信息
func (m *Memory) Metrics() Metrics {
	m.mu.RLock()
	size := len(m.store)
	m.mu.RUnlock()
	return m.stats.snapshot(size)
}

// Close 關閉快取，停止清理協程
func (m *Memory) Close() error {
	m.closeMu.Do(func() {
		close(m.done)
		m.mu.Lock()
		m.store = make(map[string]memoryEntry)
		m.mu.Unlock()
		common.LogInfo("快取管理員已關閉",
			zap.Int64("命中次數", m.stats.snapshot(0).Hits),
			zap.Int64("未命中次數", m.stats.snapshot(0).Misses),
		)
	})
	return nil
}

// startCleanup 啟動清理過期快取的協程
func (m *Memory) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			count := m.cleanupLocked()
			m.mu.Unlock()
			if count > 0 {
				common.LogDebug("清理過期快取條目", zap.Int("count", count))
			}
		case <-m.done:
			return
		}
	}
}

// cleanupLocked 清理過期條目，調用方需持有寫鎖
func (m *Memory) cleanupLocked() int {
	now := time.Now()
	count := 0
	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
		}
	}
	return count
}

// evictLRULocked 淘汰最少訪問的條目，調用方需持有寫鎖
func (m *Memory) evictLRULocked() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}
