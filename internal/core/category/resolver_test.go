package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-categorizer/internal/core/cache"
	"recipe-categorizer/internal/infrastructure/config"
	"recipe-categorizer/internal/infrastructure/store"
)

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		Backend:           "memory",
		MaxSize:           100,
		CleanupInterval:   time.Minute,
		TaxonomyTTL:       5 * time.Minute,
		UserCategoriesTTL: time.Hour,
		SuggestionTTL:     30 * time.Minute,
		RecipeMappingTTL:  10 * time.Minute,
	}
}

func newTestResolver(t *testing.T) (*Service, *store.Memory, cache.Store) {
	t.Helper()
	cfg := testCacheConfig()
	cacheStore := cache.NewMemory(cfg)
	t.Cleanup(func() { _ = cacheStore.Close() })

	recipeStore := store.NewMemory()
	return NewService(cacheStore, recipeStore, cfg), recipeStore, cacheStore
}

// failingStore 模擬儲存層故障
type failingStore struct{}

func (f *failingStore) ListDistinctCategories(ctx context.Context, userID string) ([]string, error) {
	return nil, errors.New("store unavailable")
}

func (f *failingStore) CountRecipesInCategory(ctx context.Context, userID, category string) (int, error) {
	return 0, errors.New("store unavailable")
}

func (f *failingStore) HasRecipeWithCategory(ctx context.Context, userID, category string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (f *failingStore) GroupRecipeCountsByCategory(ctx context.Context, userID string) (map[string]int, error) {
	return nil, errors.New("store unavailable")
}

func (f *failingStore) UpdateRecipeCategory(ctx context.Context, recipeID, newCategory string) error {
	return errors.New("store unavailable")
}

func (f *failingStore) BulkUpdateCategory(ctx context.Context, userID, oldName, newName string) (int, error) {
	return 0, errors.New("store unavailable")
}

func TestFindBestCategoryExactMatch(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	analysis, err := resolver.FindBestCategory(context.Background(), "Pasta", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	assert.Equal(t, "Pasta", analysis.BestMatch.Category)
	assert.Equal(t, MatchExact, analysis.BestMatch.MatchKind)
	assert.Equal(t, 1.0, analysis.BestMatch.Confidence)
	assert.False(t, analysis.ShouldCreateNew)
}

func TestFindBestCategoryExactMatchViaAlias(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	analysis, err := resolver.FindBestCategory(context.Background(), "BBQ", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	assert.Equal(t, "Grilled", analysis.BestMatch.Category)
	assert.Equal(t, MatchExact, analysis.BestMatch.MatchKind)
	assert.Equal(t, 1.0, analysis.BestMatch.Confidence)
}

func TestFindBestCategorySemanticGroup(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	analysis, err := resolver.FindBestCategory(context.Background(), "Main Courses", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	// 等價組成員同分，字母序最前者勝出
	assert.Equal(t, "Beef", analysis.BestMatch.Category)
	assert.Equal(t, MatchSemantic, analysis.BestMatch.MatchKind)
	assert.GreaterOrEqual(t, analysis.BestMatch.Confidence, 0.6)
	assert.Less(t, analysis.BestMatch.Confidence, 1.0)
}

func TestFindBestCategoryFuzzyEditDistance(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	// 拼錯一個字母仍應命中
	analysis, err := resolver.FindBestCategory(context.Background(), "Deserts", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	assert.Equal(t, "Desserts", analysis.BestMatch.Category)
	assert.Equal(t, MatchFuzzy, analysis.BestMatch.MatchKind)
	assert.GreaterOrEqual(t, analysis.BestMatch.Confidence, FuzzyThreshold)
	assert.Less(t, analysis.BestMatch.Confidence, 1.0)
}

func TestFindBestCategoryFuzzyTokenSubset(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	analysis, err := resolver.FindBestCategory(context.Background(), "Italian Pasta", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	assert.Equal(t, MatchFuzzy, analysis.BestMatch.MatchKind)
	assert.GreaterOrEqual(t, analysis.BestMatch.Confidence, FuzzyThreshold)
	assert.Contains(t, []string{"Italian", "Pasta"}, analysis.BestMatch.Category)
}

func TestFindBestCategoryNoMatch(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	analysis, err := resolver.FindBestCategory(context.Background(), "Zzyzx Quux", "", DefaultResolveOptions())
	require.NoError(t, err)

	assert.Nil(t, analysis.BestMatch)
	assert.True(t, analysis.ShouldCreateNew)
	assert.Empty(t, analysis.Suggestions)
}

func TestFindBestCategoryNoMatchWithoutCreate(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	opts := DefaultResolveOptions()
	opts.AllowNewCategories = false

	analysis, err := resolver.FindBestCategory(context.Background(), "Zzyzx Quux", "", opts)
	require.NoError(t, err)

	assert.Nil(t, analysis.BestMatch)
	assert.False(t, analysis.ShouldCreateNew)
}

func TestFindBestCategoryEmptyInput(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	for _, input := range []string{"", "   ", "!!!"} {
		analysis, err := resolver.FindBestCategory(context.Background(), input, "", DefaultResolveOptions())
		require.NoError(t, err)
		assert.Nil(t, analysis.BestMatch, "input: %q", input)
		assert.Empty(t, analysis.NormalizedCategory, "input: %q", input)
	}
}

func TestFindBestCategoryDeterminism(t *testing.T) {
	resolver, _, cacheStore := newTestResolver(t)
	ctx := context.Background()

	first, err := resolver.FindBestCategory(ctx, "Main Courses", "", DefaultResolveOptions())
	require.NoError(t, err)

	cacheStore.Clear(ctx)

	second, err := resolver.FindBestCategory(ctx, "Main Courses", "", DefaultResolveOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFindBestCategoryIdempotentCaching(t *testing.T) {
	resolver, _, cacheStore := newTestResolver(t)
	ctx := context.Background()

	first, err := resolver.FindBestCategory(ctx, "Pasta", "", DefaultResolveOptions())
	require.NoError(t, err)

	// 第二次走快取，結果不得漂移
	second, err := resolver.FindBestCategory(ctx, "Pasta", "", DefaultResolveOptions())
	require.NoError(t, err)

	require.NotNil(t, second.BestMatch)
	assert.Equal(t, first.BestMatch.Category, second.BestMatch.Category)
	assert.Equal(t, first.BestMatch.Confidence, second.BestMatch.Confidence)
	assert.Equal(t, first.Suggestions, second.Suggestions)
	assert.GreaterOrEqual(t, cacheStore.Metrics().Hits, int64(1))
}

func TestFindBestCategoryThresholdEnforcement(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	ctx := context.Background()

	inputs := []string{"Pasta", "Deserts", "Main Courses", "Italian Pasta", "Sweet Treats", "chiken"}
	for _, input := range inputs {
		analysis, err := resolver.FindBestCategory(ctx, input, "", DefaultResolveOptions())
		require.NoError(t, err)

		for _, match := range analysis.Suggestions {
			switch match.MatchKind {
			case MatchExact:
				assert.Equal(t, 1.0, match.Confidence, "input %s, category %s", input, match.Category)
			case MatchFuzzy:
				assert.GreaterOrEqual(t, match.Confidence, FuzzyThreshold, "input %s, category %s", input, match.Category)
				assert.Less(t, match.Confidence, 1.0)
			case MatchSemantic:
				assert.GreaterOrEqual(t, match.Confidence, SemanticThreshold, "input %s, category %s", input, match.Category)
				assert.Less(t, match.Confidence, 1.0)
			}
		}
		assert.LessOrEqual(t, len(analysis.Suggestions), 5)
	}
}

func TestFindBestCategoryUserCategories(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	recipeStore.AddRecipe("u1", "r1", "Weeknight Favorites")

	analysis, err := resolver.FindBestCategory(context.Background(), "Weeknight Favorites", "u1", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	assert.Equal(t, "Weeknight Favorites", analysis.BestMatch.Category)
	assert.Equal(t, MatchExact, analysis.BestMatch.MatchKind)
}

func TestFindBestCategoryIgnoresUserCategoriesWhenDisabled(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	recipeStore.AddRecipe("u1", "r1", "Weeknight Favorites")

	opts := DefaultResolveOptions()
	opts.PreferUserCategories = false

	analysis, err := resolver.FindBestCategory(context.Background(), "Weeknight Favorites", "u1", opts)
	require.NoError(t, err)

	assert.Nil(t, analysis.BestMatch)
	assert.True(t, analysis.ShouldCreateNew)
}

func TestFindBestCategoryDegradesOnStoreFailure(t *testing.T) {
	cfg := testCacheConfig()
	cacheStore := cache.NewMemory(cfg)
	t.Cleanup(func() { _ = cacheStore.Close() })

	resolver := NewService(cacheStore, &failingStore{}, cfg)

	// 儲存層掛掉時退回靜態分類表，不報錯
	analysis, err := resolver.FindBestCategory(context.Background(), "Pasta", "u1", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)
	assert.Equal(t, "Pasta", analysis.BestMatch.Category)
}

func TestFindBestCategoryStrictMode(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	ctx := context.Background()

	opts := DefaultResolveOptions()
	opts.StrictMatching = true
	opts.AllowNewCategories = false

	// 相似度落在一般門檻與嚴格門檻之間的輸入
	strict, err := resolver.FindBestCategory(ctx, "Dezzert", "", opts)
	require.NoError(t, err)
	assert.Nil(t, strict.BestMatch)

	relaxed, err := resolver.FindBestCategory(ctx, "Dezzert", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, relaxed.BestMatch)
	assert.Equal(t, "Desserts", relaxed.BestMatch.Category)
	assert.Equal(t, MatchFuzzy, relaxed.BestMatch.MatchKind)
}

func TestFindBestCategoryStrictModeSkipsCache(t *testing.T) {
	resolver, _, cacheStore := newTestResolver(t)
	ctx := context.Background()

	opts := DefaultResolveOptions()
	opts.StrictMatching = true

	_, err := resolver.FindBestCategory(ctx, "Pasta", "", opts)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cacheStore.Metrics().Sets)

	_, err = resolver.FindBestCategory(ctx, "Pasta", "", DefaultResolveOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cacheStore.Metrics().Sets)
}

func TestGetDisplayCategoriesNewUser(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	categories, err := resolver.GetDisplayCategories(context.Background(), "fresh-user")
	require.NoError(t, err)

	// 沒有任何食譜時顯示完整靜態分類表
	assert.ElementsMatch(t, CanonicalNames(), categories)
}

func TestGetDisplayCategoriesActiveUser(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	recipeStore.AddRecipe("u1", "r1", "Pasta")
	recipeStore.AddRecipe("u1", "r2", "Weeknight Favorites")

	categories, err := resolver.GetDisplayCategories(context.Background(), "u1")
	require.NoError(t, err)

	assert.Contains(t, categories, "Pasta")
	assert.Contains(t, categories, "Weeknight Favorites")
	assert.NotContains(t, categories, "Beef")
}

func TestMergeSimilarCategories(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	recipeStore.AddRecipe("u1", "r1", "Desserts")
	recipeStore.AddRecipe("u1", "r2", "Desserts")
	recipeStore.AddRecipe("u1", "r3", "Desserts")
	recipeStore.AddRecipe("u1", "r4", "Dessert")
	recipeStore.AddRecipe("u1", "r5", "Pasta")

	plan, err := resolver.MergeSimilarCategories(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, plan, 1)

	// 食譜數少的一方併入多的一方
	assert.Equal(t, "Dessert", plan[0].From)
	assert.Equal(t, "Desserts", plan[0].To)
	assert.Equal(t, 1, plan[0].RecipeCount)
}

func TestMergeSimilarCategoriesNoCandidates(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	recipeStore.AddRecipe("u1", "r1", "Pasta")
	recipeStore.AddRecipe("u1", "r2", "Beef")

	plan, err := resolver.MergeSimilarCategories(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestApplyRename(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	ctx := context.Background()

	recipeStore.AddRecipe("u1", "r1", "Old Name")
	recipeStore.AddRecipe("u1", "r2", "Old Name")
	recipeStore.AddRecipe("u1", "r3", "Pasta")

	// 先解析一次，讓使用者分類進快取
	_, err := resolver.FindBestCategory(ctx, "Old Name", "u1", DefaultResolveOptions())
	require.NoError(t, err)

	updated, err := resolver.ApplyRename(ctx, "u1", "Old Name", "New Name")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// 改名後快取應失效，新名稱要能精確命中
	analysis, err := resolver.FindBestCategory(ctx, "New Name", "u1", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)
	assert.Equal(t, "New Name", analysis.BestMatch.Category)
	assert.Equal(t, MatchExact, analysis.BestMatch.MatchKind)
}

func TestEditSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, editSimilarity("pasta", "pasta"))
	assert.InDelta(t, 0.857, editSimilarity("desert", "dessert"), 0.01)
	assert.Equal(t, 1.0, editSimilarity("", ""))
	assert.Equal(t, 0.0, editSimilarity("", "pasta"))
}

func TestFindBestCategorySynonymSetOverlap(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	analysis, err := resolver.FindBestCategory(context.Background(), "Quick Meal", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	// 等價組直接成員拿 0.9
	assert.Equal(t, MatchSemantic, analysis.BestMatch.MatchKind)
	assert.InDelta(t, 0.9, analysis.BestMatch.Confidence, 1e-9)

	// "dessert" 和 "quick meal" 的同義詞集在 "snack" 上有交集，拿 0.7
	var overlap *CategoryMatch
	for i := range analysis.Suggestions {
		if analysis.Suggestions[i].Category == "Desserts" {
			overlap = &analysis.Suggestions[i]
		}
	}
	require.NotNil(t, overlap, "同義詞集有交集的分類應該進候選")
	assert.Equal(t, MatchSemantic, overlap.MatchKind)
	assert.InDelta(t, 0.7, overlap.Confidence, 1e-9)
}

func TestFindBestCategorySynonymSetOverlapStrictDisabled(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	opts := DefaultResolveOptions()
	opts.StrictMatching = true
	analysis, err := resolver.FindBestCategory(context.Background(), "Quick Meal", "", opts)
	require.NoError(t, err)

	// 嚴格模式只留直接包含，不做同義詞集交集
	for _, match := range analysis.Suggestions {
		assert.NotEqual(t, "Desserts", match.Category)
	}
}

func TestFindBestCategoryOriginalInputNormalized(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	analysis, err := resolver.FindBestCategory(context.Background(), "  Deserts ", "", DefaultResolveOptions())
	require.NoError(t, err)
	require.NotNil(t, analysis.BestMatch)

	assert.Equal(t, "desert", analysis.BestMatch.OriginalInput)
	for _, match := range analysis.Suggestions {
		assert.Equal(t, "desert", match.OriginalInput)
	}
}

func TestMergeSimilarCategoriesFuzzyAndAlias(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	recipeStore.AddRecipe("u1", "r1", "Italian Pasta")
	recipeStore.AddRecipe("u1", "r2", "Italian Pasta")
	recipeStore.AddRecipe("u1", "r3", "BBQ")

	plan, err := resolver.MergeSimilarCategories(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, plan, 2)

	byFrom := make(map[string]MergePlanEntry, len(plan))
	for _, entry := range plan {
		byFrom[entry.From] = entry
	}

	fuzzyEntry, ok := byFrom["Italian Pasta"]
	require.True(t, ok, "自訂分類應該被提議併入相近的靜態分類")
	assert.Contains(t, []string{"Italian", "Pasta"}, fuzzyEntry.To)
	assert.Equal(t, 2, fuzzyEntry.RecipeCount)
	assert.Less(t, fuzzyEntry.Confidence, 1.0)

	aliasEntry, ok := byFrom["BBQ"]
	require.True(t, ok, "別名應該被提議併入正準分類")
	assert.Equal(t, "Grilled", aliasEntry.To)
	assert.Equal(t, 1.0, aliasEntry.Confidence)
}

func TestMergeSimilarCategoriesConsumedTargetSkipped(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	recipeStore.AddRecipe("u1", "r1", "Pastas")
	recipeStore.AddRecipe("u1", "r2", "Pastas")
	recipeStore.AddRecipe("u1", "r3", "Pasta Dishes")

	plan, err := resolver.MergeSimilarCategories(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, plan, 1)

	// "Pasta" 已被前一筆當成目標消耗，後面的分類不能再併進去
	assert.Equal(t, "Pastas", plan[0].From)
	assert.Equal(t, "Pasta", plan[0].To)
}

func TestRecipeCountsCachedAndInvalidatedOnRename(t *testing.T) {
	resolver, recipeStore, _ := newTestResolver(t)
	ctx := context.Background()

	recipeStore.AddRecipe("u1", "r1", "Old Name")
	first, err := resolver.GetDisplayCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, first, "Old Name")

	// 統計已進快取，儲存層的新增先看不到
	recipeStore.AddRecipe("u1", "r2", "Weeknight Favorites")
	second, err := resolver.GetDisplayCategories(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, second, "Weeknight Favorites")

	// 改名會失效統計快取，重新讀到最新狀態
	_, err = resolver.ApplyRename(ctx, "u1", "Old Name", "New Name")
	require.NoError(t, err)

	third, err := resolver.GetDisplayCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, third, "New Name")
	assert.Contains(t, third, "Weeknight Favorites")
}
