package store

import (
	"context"
)

// RecipeStore 食譜儲存層的契約
// 持久層本身不在此服務範圍內，這裡只定義分類引擎需要的讀寫操作
type RecipeStore interface {
	// ListDistinctCategories 列出使用者食譜中出現過的所有分類值
	ListDistinctCategories(ctx context.Context, userID string) ([]string, error)
	// CountRecipesInCategory 計算某分類下的食譜數量
	CountRecipesInCategory(ctx context.Context, userID, category string) (int, error)
	// HasRecipeWithCategory 檢查是否存在使用該分類的食譜（不分大小寫）
	HasRecipeWithCategory(ctx context.Context, userID, category string) (bool, error)
	// GroupRecipeCountsByCategory 依分類分組統計食譜數量
	GroupRecipeCountsByCategory(ctx context.Context, userID string) (map[string]int, error)
	// UpdateRecipeCategory 更新單一食譜的分類
	UpdateRecipeCategory(ctx context.Context, recipeID, newCategory string) error
	// BulkUpdateCategory 批次改名，回傳更新筆數
	BulkUpdateCategory(ctx context.Context, userID, oldName, newName string) (int, error)
}
