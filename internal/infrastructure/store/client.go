package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-categorizer/internal/infrastructure/config"
	"recipe-categorizer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// Client 透過 HTTP 訪問食譜儲存服務
type Client struct {
	client *resty.Client
}

// NewClient 創建食譜儲存服務客戶端
func NewClient(cfg *config.StoreConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{client: client}
}

// ListDistinctCategories 列出使用者食譜中出現過的所有分類值
func (c *Client) ListDistinctCategories(ctx context.Context, userID string) ([]string, error) {
	start := time.Now()
	var result struct {
		Categories []string `json:"categories"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("userID", userID).
		Get("/users/{userID}/categories")
	common.LogStoreCall("list_distinct_categories", time.Since(start), err)
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("store returned status %d", resp.StatusCode()))
	}
	return result.Categories, nil
}

// CountRecipesInCategory 計算某分類下的食譜數量
func (c *Client) CountRecipesInCategory(ctx context.Context, userID, category string) (int, error) {
	start := time.Now()
	var result struct {
		Count int `json:"count"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("userID", userID).
		SetQueryParam("category", category).
		Get("/users/{userID}/recipes/count")
	common.LogStoreCall("count_recipes_in_category", time.Since(start), err)
	if err != nil {
		return 0, common.ErrStoreUnavailable.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, common.ErrStoreUnavailable.Wrap(fmt.Errorf("store returned status %d", resp.StatusCode()))
	}
	return result.Count, nil
}

// HasRecipeWithCategory 檢查是否存在使用該分類的食譜（不分大小寫）
func (c *Client) HasRecipeWithCategory(ctx context.Context, userID, category string) (bool, error) {
	start := time.Now()
	var result struct {
		Exists bool `json:"exists"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("userID", userID).
		SetQueryParam("category", category).
		Get("/users/{userID}/recipes/exists")
	common.LogStoreCall("has_recipe_with_category", time.Since(start), err)
	if err != nil {
		return false, common.ErrStoreUnavailable.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return false, common.ErrStoreUnavailable.Wrap(fmt.Errorf("store returned status %d", resp.StatusCode()))
	}
	return result.Exists, nil
}

// GroupRecipeCountsByCategory 依分類分組統計食譜數量
func (c *Client) GroupRecipeCountsByCategory(ctx context.Context, userID string) (map[string]int, error) {
	start := time.Now()
	var result struct {
		Counts map[string]int `json:"counts"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("userID", userID).
		Get("/users/{userID}/recipes/category-counts")
	common.LogStoreCall("group_recipe_counts", time.Since(start), err)
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("store returned status %d", resp.StatusCode()))
	}
	return result.Counts, nil
}

// UpdateRecipeCategory 更新單一食譜的分類
func (c *Client) UpdateRecipeCategory(ctx context.Context, recipeID, newCategory string) error {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("recipeID", recipeID).
		SetBody(map[string]string{"category": newCategory}).
		Put("/recipes/{recipeID}/category")
	common.LogStoreCall("update_recipe_category", time.Since(start), err)
	if err != nil {
		return common.ErrStoreUnavailable.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return common.ErrStoreUnavailable.Wrap(fmt.Errorf("store returned status %d", resp.StatusCode()))
	}
	return nil
}

// BulkUpdateCategory 批次改名，回傳更新筆數
func (c *Client) BulkUpdateCategory(ctx context.Context, userID, oldName, newName string) (int, error) {
	start := time.Now()
	var result struct {
		Updated int `json:"updated"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("userID", userID).
		SetBody(map[string]string{"old_name": oldName, "new_name": newName}).
		Post("/users/{userID}/categories/bulk-update")
	common.LogStoreCall("bulk_update_category", time.Since(start), err)
	if err != nil {
		return 0, common.ErrStoreUnavailable.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, common.ErrStoreUnavailable.Wrap(fmt.Errorf("store returned status %d", resp.StatusCode()))
	}
	return result.Updated, nil
}
