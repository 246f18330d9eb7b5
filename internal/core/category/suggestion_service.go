package category

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kljensen/snowball"
	"go.uber.org/zap"

	"recipe-categorizer/internal/core/cache"
	"recipe-categorizer/internal/infrastructure/config"
	"recipe-categorizer/internal/infrastructure/store"
	"recipe-categorizer/internal/pkg/common"
)

const suggestKeyPrefix = "category:suggest:"

// 各信號的信心值上限與縮放係數
const (
	ingredientConfidenceCap = 0.9
	ingredientScale         = 2.0
	methodConfidenceCap     = 0.8
	methodScale             = 1.5
	mealTimeConfidenceCap   = 0.7
	mealTimeScale           = 1.2
	keywordConfidenceCap    = 0.8
	keywordStemScore        = 0.3
	keywordLiteralScore     = 0.4
	keywordFloor            = 0.2
	similarityFloor         = 0.3
)

// ingredientPatterns 各分類的特徵食材詞。比對時對食材清單做子字串匹配。
var ingredientPatterns = map[string][]string{
	"Italian":    {"spaghetti", "parmesan", "pancetta", "basil", "mozzarella", "prosciutto", "risotto", "pesto"},
	"Asian":      {"soy sauce", "ginger", "sesame", "rice vinegar", "miso", "tofu", "fish sauce", "bok choy"},
	"Mexican":    {"tortilla", "cilantro", "jalapeno", "salsa", "lime", "black beans", "queso", "chipotle"},
	"Desserts":   {"sugar", "chocolate", "vanilla", "frosting", "cocoa", "caramel", "whipped cream", "sprinkles"},
	"Salads":     {"lettuce", "arugula", "spinach", "vinaigrette", "croutons", "kale", "romaine", "dressing"},
	"Seafood":    {"shrimp", "salmon", "tuna", "crab", "scallops", "clams", "mussels", "cod"},
	"Beef":       {"ground beef", "steak", "brisket", "sirloin", "chuck roast", "short ribs", "flank", "ribeye"},
	"Chicken":    {"chicken breast", "chicken thigh", "drumstick", "rotisserie", "chicken stock", "chicken wing", "ground chicken", "chicken tender"},
	"Pasta":      {"penne", "fettuccine", "linguine", "macaroni", "lasagna", "rigatoni", "orzo", "tortellini"},
	"Soups":      {"broth", "stock", "bouillon", "lentils", "split peas", "barley", "noodle soup", "chowder"},
	"Vegetarian": {"tofu", "tempeh", "chickpeas", "lentils", "quinoa", "mushrooms", "eggplant", "cauliflower"},
	"Breakfast":  {"eggs", "bacon", "pancake mix", "maple syrup", "oats", "granola", "sausage links", "hash browns"},
}

// methodPatterns 烹調手法詞，掃描標題與做法
var methodPatterns = map[string][]string{
	"Baked":       {"bake", "baked", "oven", "roast", "roasted", "broil"},
	"Grilled":     {"grill", "grilled", "barbecue", "bbq", "char", "skewer"},
	"Fried":       {"fry", "fried", "deep-fry", "pan-fry", "saute", "crispy"},
	"Slow-Cooked": {"slow cook", "slow-cook", "crockpot", "braise", "braised", "simmer for hours"},
	"No-Cook":     {"no cook", "no-cook", "no bake", "no-bake", "raw", "chill until set"},
	"One-Pot":     {"one pot", "one-pot", "skillet", "sheet pan", "single pan", "dutch oven"},
}

// mealTimePatterns 用餐時段詞，掃描標題與描述
var mealTimePatterns = map[string][]string{
	"Breakfast": {"breakfast", "brunch", "morning", "overnight oats", "toast"},
	"Lunch":     {"lunch", "midday", "sandwich", "wrap", "lunchbox"},
	"Dinner":    {"dinner", "supper", "weeknight", "evening meal", "main course"},
	"Snacks":    {"snack", "bite", "finger food", "on-the-go", "munch"},
	"Desserts":  {"dessert", "sweet", "treat", "after dinner", "indulgent"},
}

// keywordStopWords 關鍵詞抽取時忽略的常見詞
var keywordStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "with": {}, "of": {}, "in": {},
	"for": {}, "to": {}, "on": {}, "or": {}, "my": {}, "easy": {}, "best": {},
	"classic": {}, "homemade": {}, "simple": {}, "quick": {}, "recipe": {},
}

// SuggestionService 食譜分類推薦引擎：五種信號獨立評分後合併
type SuggestionService struct {
	cache cache.Store
	store store.RecipeStore
	cfg   *config.CacheConfig
}

// NewSuggestionService 建立推薦引擎
func NewSuggestionService(cacheStore cache.Store, recipeStore store.RecipeStore, cfg *config.CacheConfig) *SuggestionService {
	return &SuggestionService{
		cache: cacheStore,
		store: recipeStore,
		cfg:   cfg,
	}
}

// SuggestCategories 根據食譜內容產生排序後的分類建議。
// 任一信號失敗只會使該信號貢獻為零，不影響整體結果。
func (s *SuggestionService) SuggestCategories(ctx context.Context, content RecipeContent, opts SuggestOptions) ([]SuggestionResult, error) {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = maxSuggestions
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = defaultMinConfidence
	}

	cacheKey := s.buildCacheKey(content, opts)
	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		common.LogCacheHit("suggest")
		var cached []SuggestionResult
		if err := common.ParseJSON(raw, &cached); err == nil {
			return cached, nil
		}
		common.LogWarn("推薦快取內容失敗，重新計算", zap.String("key", cacheKey))
	} else {
		common.LogCacheMiss("suggest")
	}

	var all []SuggestionResult
	all = append(all, extractByIngredients(content)...)
	all = append(all, extractByMethod(content)...)
	all = append(all, extractByMealTime(content)...)
	all = append(all, extractByKeywords(content)...)
	if opts.IncludeUserHistory && opts.UserID != "" {
		all = append(all, s.extractBySimilarity(ctx, content, opts.UserID)...)
	}

	results := mergeSuggestions(all, opts)

	if raw, err := common.ToJSON(results); err == nil {
		s.cache.Set(ctx, cacheKey, raw, s.cfg.SuggestionTTL)
	}
	return results, nil
}

// buildCacheKey 以標題、前五項食材、前三步做法與選項組成快取鍵，
// 截斷是為了控制鍵的基數
func (s *SuggestionService) buildCacheKey(content RecipeContent, opts SuggestOptions) string {
	parts := []string{content.Title}
	parts = append(parts, headOf(content.Ingredients, 5)...)
	parts = append(parts, headOf(content.Instructions, 3)...)
	parts = append(parts,
		fmt.Sprintf("%d", opts.MaxSuggestions),
		fmt.Sprintf("%.2f", opts.MinConfidence),
		fmt.Sprintf("%t", opts.IncludeUserHistory),
		opts.UserID,
	)
	return suggestKeyPrefix + cache.HashKey(parts...)
}

func headOf(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// extractByIngredients 食材信號：特徵食材命中比例決定信心值
func extractByIngredients(content RecipeContent) []SuggestionResult {
	if len(content.Ingredients) == 0 {
		return nil
	}
	haystack := strings.ToLower(strings.Join(content.Ingredients, " "))

	var results []SuggestionResult
	for categoryName, patterns := range ingredientPatterns {
		var matched []string
		for _, pattern := range patterns {
			if strings.Contains(haystack, pattern) {
				matched = append(matched, pattern)
			}
		}
		if len(matched) == 0 {
			continue
		}
		confidence := float64(len(matched)) / float64(len(patterns)) * ingredientScale
		if confidence > ingredientConfidenceCap {
			confidence = ingredientConfidenceCap
		}
		results = append(results, SuggestionResult{
			Category:   categoryName,
			Confidence: confidence,
			Reasoning:  "食材匹配: " + strings.Join(headOf(matched, 3), ", "),
			Source:     SourceIngredient,
		})
	}
	return results
}

// extractByMethod 烹調手法信號，掃描標題與做法
func extractByMethod(content RecipeContent) []SuggestionResult {
	text := strings.ToLower(content.Title + " " + strings.Join(content.Instructions, " "))
	return extractByPatterns(text, methodPatterns, methodScale, methodConfidenceCap, SourceMethod, "烹調手法")
}

// extractByMealTime 用餐時段信號，掃描標題與描述
func extractByMealTime(content RecipeContent) []SuggestionResult {
	text := strings.ToLower(content.Title + " " + content.Description)
	return extractByPatterns(text, mealTimePatterns, mealTimeScale, mealTimeConfidenceCap, SourceMealTime, "用餐時段")
}

func extractByPatterns(text string, patterns map[string][]string, scale, limit float64, source SuggestionSource, label string) []SuggestionResult {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var results []SuggestionResult
	for categoryName, words := range patterns {
		var matched []string
		for _, word := range words {
			if strings.Contains(text, word) {
				matched = append(matched, word)
			}
		}
		if len(matched) == 0 {
			continue
		}
		confidence := float64(len(matched)) / float64(len(words)) * scale
		if confidence > limit {
			confidence = limit
		}
		results = append(results, SuggestionResult{
			Category:   categoryName,
			Confidence: confidence,
			Reasoning:  label + "匹配: " + strings.Join(headOf(matched, 3), ", "),
			Source:     source,
		})
	}
	return results
}

// extractByKeywords 關鍵詞信號：詞幹比對加原文子字串比對
func extractByKeywords(content RecipeContent) []SuggestionResult {
	rawText := strings.ToLower(strings.Join(append([]string{
		content.Title, content.Description,
	}, append(content.Ingredients, content.Instructions...)...), " "))
	if strings.TrimSpace(rawText) == "" {
		return nil
	}

	stemmed := make(map[string]struct{})
	for _, tok := range strings.Fields(rawText) {
		tok = strings.Trim(tok, ".,;:!?()")
		if _, stop := keywordStopWords[tok]; stop || tok == "" {
			continue
		}
		stemmed[stemToken(tok)] = struct{}{}
	}

	var results []SuggestionResult
	for _, categoryName := range CanonicalNames() {
		score := 0.0
		var matchedTokens []string
		for _, tok := range strings.Fields(Normalize(categoryName)) {
			if _, ok := stemmed[stemToken(tok)]; ok {
				score += keywordStemScore
				matchedTokens = append(matchedTokens, tok)
			}
		}
		if strings.Contains(rawText, strings.ToLower(categoryName)) {
			score += keywordLiteralScore
		}
		if score <= keywordFloor {
			continue
		}
		if score > keywordConfidenceCap {
			score = keywordConfidenceCap
		}
		reasoning := "關鍵詞匹配"
		if len(matchedTokens) > 0 {
			reasoning += ": " + strings.Join(matchedTokens, ", ")
		}
		results = append(results, SuggestionResult{
			Category:   categoryName,
			Confidence: score,
			Reasoning:  reasoning,
			Source:     SourceKeyword,
		})
	}
	return results
}

// extractBySimilarity 使用者歷史信號：分類名稱的詞有多少比例出現在內容裡。
// 歷史讀取失敗時降級為零貢獻。
func (s *SuggestionService) extractBySimilarity(ctx context.Context, content RecipeContent, userID string) []SuggestionResult {
	categories, err := s.store.ListDistinctCategories(ctx, userID)
	if err != nil {
		common.LogWarn("取得使用者分類失敗，略過歷史相似度信號",
			zap.String("userID", userID),
			zap.Error(err))
		return nil
	}

	text := strings.ToLower(strings.Join(append([]string{
		content.Title, content.Description,
	}, append(content.Ingredients, content.Instructions...)...), " "))

	var results []SuggestionResult
	for _, categoryName := range categories {
		words := strings.Fields(Normalize(categoryName))
		if len(words) == 0 {
			continue
		}
		hits := 0
		for _, word := range words {
			if strings.Contains(text, word) {
				hits++
			}
		}
		fraction := float64(hits) / float64(len(words))
		if fraction <= similarityFloor {
			continue
		}
		results = append(results, SuggestionResult{
			Category:   categoryName,
			Confidence: fraction,
			Reasoning:  "與既有分類相似: " + categoryName,
			Source:     SourceSimilarity,
		})
	}
	return results
}

func stemToken(tok string) string {
	stemmed, err := snowball.Stem(tok, "english", true)
	if err != nil {
		return tok
	}
	return stemmed
}

// mergeSuggestions 同分類只留最高信心值，過濾門檻後排序截斷
func mergeSuggestions(all []SuggestionResult, opts SuggestOptions) []SuggestionResult {
	byCategory := make(map[string]SuggestionResult, len(all))
	for _, result := range all {
		key := Normalize(result.Category)
		if existing, ok := byCategory[key]; !ok || result.Confidence > existing.Confidence {
			byCategory[key] = result
		}
	}

	results := make([]SuggestionResult, 0, len(byCategory))
	for _, result := range byCategory {
		if result.Confidence >= opts.MinConfidence {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Category < results[j].Category
	})
	if len(results) > opts.MaxSuggestions {
		results = results[:opts.MaxSuggestions]
	}
	return results
}
