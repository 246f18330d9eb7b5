package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory 進程內的食譜儲存實作，開發與測試用
type Memory struct {
	mu sync.RWMutex
	// userID → recipeID → category
	recipes map[string]map[string]string
}

// NewMemory 創建進程內食譜儲存
func NewMemory() *Memory {
	return &Memory{
		recipes: make(map[string]map[string]string),
	}
}

// AddRecipe 寫入一筆食譜分類（測試與開發用的種子資料入口）
func (m *Memory) AddRecipe(userID, recipeID, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recipes[userID] == nil {
		m.recipes[userID] = make(map[string]string)
	}
	m.recipes[userID][recipeID] = category
}

// ListDistinctCategories 列出使用者食譜中出現過的所有分類值
func (m *Memory) ListDistinctCategories(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, category := range m.recipes[userID] {
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	sort.Strings(out)
	return out, nil
}

// CountRecipesInCategory 計算某分類下的食譜數量
func (m *Memory) CountRecipesInCategory(ctx context.Context, userID, category string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, c := range m.recipes[userID] {
		if strings.EqualFold(c, category) {
			count++
		}
	}
	return count, nil
}

// HasRecipeWithCategory 檢查是否存在使用該分類的食譜（不分大小寫）
func (m *Memory) HasRecipeWithCategory(ctx context.Context, userID, category string) (bool, error) {
	count, err := m.CountRecipesInCategory(ctx, userID, category)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GroupRecipeCountsByCategory 依分類分組統計食譜數量
func (m *Memory) GroupRecipeCountsByCategory(ctx context.Context, userID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range m.recipes[userID] {
		counts[c]++
	}
	return counts, nil
}

// UpdateRecipeCategory 更新單一食譜的分類
func (m *Memory) UpdateRecipeCategory(ctx context.Context, recipeID, newCategory string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, userRecipes := range m.recipes {
		if _, ok := userRecipes[recipeID]; ok {
			userRecipes[recipeID] = newCategory
			return nil
		}
	}
	return nil
}

// BulkUpdateCategory 批次改名，回傳更新筆數
func (m *Memory) BulkUpdateCategory(ctx context.Context, userID, oldName, newName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := 0
	for recipeID, c := range m.recipes[userID] {
		if strings.EqualFold(c, oldName) {
			m.recipes[userID][recipeID] = newName
			updated++
		}
	}
	return updated, nil
}
