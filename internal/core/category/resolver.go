package category

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"recipe-categorizer/internal/core/cache"
	"recipe-categorizer/internal/infrastructure/config"
	"recipe-categorizer/internal/infrastructure/store"
	"recipe-categorizer/internal/pkg/common"
)

// 快取鍵前綴，依命名空間區分 TTL
const (
	resolveKeyPrefix      = "category:resolve:"
	userCatsKeyPrefix     = "category:user:"
	recipeCountsKeyPrefix = "category:recipes:"
	globalScope           = "global"
)

// Service 分類解析服務：把任意輸入字串對應到已知分類
type Service struct {
	cache cache.Store
	store store.RecipeStore
	cfg   *config.CacheConfig
}

// NewService 建立分類解析服務
func NewService(cacheStore cache.Store, recipeStore store.RecipeStore, cfg *config.CacheConfig) *Service {
	return &Service{
		cache: cacheStore,
		store: recipeStore,
		cfg:   cfg,
	}
}

// FindBestCategory 解析輸入字串，回傳最佳分類與候選清單。
// 匹配優先序：精確 > 模糊 > 語義；信心值 1.0 只會出現在精確匹配。
func (s *Service) FindBestCategory(ctx context.Context, input, userID string, opts ResolveOptions) (*CategoryAnalysis, error) {
	normalized := Normalize(input)
	if normalized == "" {
		return &CategoryAnalysis{
			ShouldCreateNew:    opts.AllowNewCategories,
			Suggestions:        []CategoryMatch{},
			NormalizedCategory: "",
		}, nil
	}

	scope := globalScope
	if userID != "" && opts.PreferUserCategories {
		scope = userID
	}
	cacheKey := resolveKeyPrefix + cache.HashKey(normalized, scope)

	// 嚴格模式門檻不同，結果不可與一般模式共用
	if !opts.StrictMatching {
		if raw, ok := s.cache.Get(ctx, cacheKey); ok {
			common.LogCacheHit("resolve")
			var cached CategoryAnalysis
			if err := common.ParseJSON(raw, &cached); err == nil {
				return &cached, nil
			}
			common.LogWarn("解析快取內容失敗，重新計算", zap.String("key", cacheKey))
		} else {
			common.LogCacheMiss("resolve")
		}
	}

	candidates := s.collectCandidates(ctx, userID, opts)
	matches := s.matchCandidates(normalized, candidates, opts)

	sortMatches(matches)
	for i := range matches {
		matches[i].OriginalInput = normalized
	}

	analysis := &CategoryAnalysis{
		Suggestions:        topMatches(matches, maxSuggestions),
		NormalizedCategory: normalized,
	}
	if len(matches) > 0 {
		best := matches[0]
		analysis.BestMatch = &best
		analysis.NormalizedCategory = Normalize(best.Category)
	} else {
		analysis.ShouldCreateNew = opts.AllowNewCategories
	}

	if analysis.BestMatch != nil && !opts.StrictMatching {
		if raw, err := common.ToJSON(analysis); err == nil {
			s.cache.Set(ctx, cacheKey, raw, s.cfg.TaxonomyTTL)
		}
	}
	return analysis, nil
}

// collectCandidates 收集比對候選：靜態分類表，加上使用者既有分類
func (s *Service) collectCandidates(ctx context.Context, userID string, opts ResolveOptions) []string {
	candidates := CanonicalNames()
	if userID == "" || !opts.PreferUserCategories {
		return candidates
	}

	userCategories, err := s.getUserCategories(ctx, userID)
	if err != nil {
		common.LogWarn("取得使用者分類失敗，僅用靜態分類表比對",
			zap.String("userID", userID),
			zap.Error(err))
		return candidates
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, name := range candidates {
		seen[Normalize(name)] = struct{}{}
	}
	for _, name := range userCategories {
		if _, ok := seen[Normalize(name)]; !ok {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

// getUserCategories 讀取使用者分類清單，帶快取
func (s *Service) getUserCategories(ctx context.Context, userID string) ([]string, error) {
	key := userCatsKeyPrefix + userID
	if raw, ok := s.cache.Get(ctx, key); ok {
		common.LogCacheHit("user_categories")
		var categories []string
		if err := common.ParseJSON(raw, &categories); err == nil {
			return categories, nil
		}
	} else {
		common.LogCacheMiss("user_categories")
	}

	categories, err := s.store.ListDistinctCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if raw, err := common.ToJSON(categories); err == nil {
		s.cache.Set(ctx, key, raw, s.cfg.UserCategoriesTTL)
	}
	return categories, nil
}

// getRecipeCounts 讀取使用者各分類的食譜數，帶快取
func (s *Service) getRecipeCounts(ctx context.Context, userID string) (map[string]int, error) {
	key := recipeCountsKeyPrefix + userID
	if raw, ok := s.cache.Get(ctx, key); ok {
		common.LogCacheHit("recipe_counts")
		var counts map[string]int
		if err := common.ParseJSON(raw, &counts); err == nil {
			return counts, nil
		}
	} else {
		common.LogCacheMiss("recipe_counts")
	}

	counts, err := s.store.GroupRecipeCountsByCategory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if raw, err := common.ToJSON(counts); err == nil {
		s.cache.Set(ctx, key, raw, s.cfg.RecipeMappingTTL)
	}
	return counts, nil
}

// InvalidateUserCategories 使用者分類異動後清除分類清單與統計快取
func (s *Service) InvalidateUserCategories(ctx context.Context, userID string) {
	s.cache.Delete(ctx, userCatsKeyPrefix+userID)
	s.cache.Delete(ctx, recipeCountsKeyPrefix+userID)
}

// ApplyRename 批次改名使用者分類並失效快取。
// 調用方要先用驗證器把關，這裡只負責執行。
func (s *Service) ApplyRename(ctx context.Context, userID, oldName, newName string) (int, error) {
	updated, err := s.store.BulkUpdateCategory(ctx, userID, oldName, newName)
	if err != nil {
		common.LogError("分類改名失敗",
			zap.String("userID", userID),
			zap.String("old_name", oldName),
			zap.Error(err))
		return 0, err
	}

	s.InvalidateUserCategories(ctx, userID)
	common.LogInfo("分類改名完成",
		zap.String("userID", userID),
		zap.String("old_name", oldName),
		zap.String("new_name", newName),
		zap.Int("updated", updated))
	return updated, nil
}

// matchCandidates 依序跑三種匹配，同一分類只保留最先命中的結果
func (s *Service) matchCandidates(normalized string, candidates []string, opts ResolveOptions) []CategoryMatch {
	fuzzyThreshold := FuzzyThreshold
	if opts.StrictMatching {
		fuzzyThreshold = StrictFuzzyThreshold
	}

	var matches []CategoryMatch
	matched := make(map[string]struct{}, len(candidates))

	// 精確匹配：標準形相等，或命中別名表
	for _, candidate := range candidates {
		if Normalize(candidate) == normalized {
			matches = append(matches, CategoryMatch{Category: candidate, Confidence: 1.0, MatchKind: MatchExact})
			matched[candidate] = struct{}{}
		}
	}
	if canonical, ok := LookupCanonical(normalized); ok {
		if _, dup := matched[canonical]; !dup {
			matches = append(matches, CategoryMatch{Category: canonical, Confidence: 1.0, MatchKind: MatchExact})
			matched[canonical] = struct{}{}
		}
	}

	// 模糊匹配：編輯距離相似度，再補一輪子序列比對
	for _, candidate := range candidates {
		if _, done := matched[candidate]; done {
			continue
		}
		sim := editSimilarity(normalized, Normalize(candidate))
		if sim >= fuzzyThreshold {
			matches = append(matches, CategoryMatch{Category: candidate, Confidence: clampBelowExact(sim), MatchKind: MatchFuzzy})
			matched[candidate] = struct{}{}
		}
	}
	for _, candidate := range candidates {
		if _, done := matched[candidate]; done {
			continue
		}
		candNorm := Normalize(candidate)
		// 子序列先篩一輪，通過的再以詞集相似度計分
		if !fuzzy.MatchNormalizedFold(candNorm, normalized) && !fuzzy.MatchNormalizedFold(normalized, candNorm) {
			continue
		}
		if sim := tokenSetSimilarity(normalized, candNorm); sim >= fuzzyThreshold {
			matches = append(matches, CategoryMatch{Category: candidate, Confidence: clampBelowExact(sim), MatchKind: MatchFuzzy})
			matched[candidate] = struct{}{}
		}
	}

	// 語義匹配：等價組直接包含 0.9，兩邊同義詞集有交集 0.7
	synonyms := SynonymSet(normalized)
	if len(synonyms) > 0 {
		for _, candidate := range candidates {
			if _, done := matched[candidate]; done {
				continue
			}
			candNorm := Normalize(candidate)
			candSynonyms := SynonymSet(candNorm)
			confidence := 0.0
			if _, ok := synonyms[candNorm]; ok {
				confidence = semanticDirectConfidence
			} else if _, ok := candSynonyms[normalized]; ok {
				confidence = semanticDirectConfidence
			} else if !opts.StrictMatching && tokensIntersect(synonyms, candSynonyms) {
				confidence = semanticIntersectConfidence
			}
			if confidence >= SemanticThreshold {
				matches = append(matches, CategoryMatch{Category: candidate, Confidence: confidence, MatchKind: MatchSemantic})
				matched[candidate] = struct{}{}
			}
		}
	}
	return matches
}

// GetDisplayCategories 回傳使用者介面要顯示的分類清單：
// 新使用者顯示完整靜態分類表；否則顯示有食譜的靜態分類加自訂分類。
func (s *Service) GetDisplayCategories(ctx context.Context, userID string) ([]string, error) {
	counts, err := s.getRecipeCounts(ctx, userID)
	if err != nil {
		common.LogError("取得分類食譜數失敗", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	if len(counts) == 0 {
		return CanonicalNames(), nil
	}

	normCounts := make(map[string]int, len(counts))
	for name, n := range counts {
		normCounts[Normalize(name)] += n
	}

	var result []string
	for _, name := range CanonicalNames() {
		if normCounts[Normalize(name)] > 0 {
			result = append(result, name)
		}
	}
	for name := range counts {
		if !IsTaxonomyCategory(name) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}

// MergePlanEntry 合併計畫的一筆映射
type MergePlanEntry struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Confidence  float64 `json:"confidence"`
	RecipeCount int     `json:"recipeCount"`
}

// MergeSimilarCategories 掃描使用者分類，產生相似分類的合併計畫。
// 只提議、不執行；依食譜數多者優先當合併目標。
func (s *Service) MergeSimilarCategories(ctx context.Context, userID string) ([]MergePlanEntry, error) {
	counts, err := s.getRecipeCounts(ctx, userID)
	if err != nil {
		common.LogError("取得分類食譜數失敗", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}

	type catCount struct {
		name  string
		count int
	}
	ordered := make([]catCount, 0, len(counts))
	for name, n := range counts {
		ordered = append(ordered, catCount{name: name, count: n})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].name < ordered[j].name
	})

	opts := ResolveOptions{
		AllowNewCategories:   false,
		PreferUserCategories: true,
		StrictMatching:       true,
	}

	var plan []MergePlanEntry
	consumed := make(map[string]struct{}, len(ordered))
	for _, cat := range ordered {
		if _, done := consumed[Normalize(cat.name)]; done {
			continue
		}
		analysis, err := s.FindBestCategory(ctx, cat.name, userID, opts)
		if err != nil {
			return nil, err
		}
		// 自己永遠是自己的精確匹配，往下找第一個可用的合併目標。
		// 語義組員是同類不是同名，不當合併目標。
		var target *CategoryMatch
		for i := range analysis.Suggestions {
			candidate := analysis.Suggestions[i]
			if candidate.MatchKind == MatchSemantic {
				continue
			}
			if strings.EqualFold(candidate.Category, cat.name) {
				continue
			}
			if _, taken := consumed[Normalize(candidate.Category)]; taken {
				continue
			}
			target = &candidate
			break
		}
		if target == nil {
			continue
		}
		plan = append(plan, MergePlanEntry{
			From:        cat.name,
			To:          target.Category,
			Confidence:  target.Confidence,
			RecipeCount: cat.count,
		})
		consumed[Normalize(cat.name)] = struct{}{}
		consumed[Normalize(target.Category)] = struct{}{}
	}
	return plan, nil
}

// editSimilarity 把編輯距離換算成 0~1 的相似度
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// clampBelowExact 非精確匹配的信心值不得達到 1.0
func clampBelowExact(confidence float64) float64 {
	if confidence >= 1.0 {
		return 0.99
	}
	return confidence
}

// sortMatches 信心值高者在前，同分依名稱字母序
func sortMatches(matches []CategoryMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Category < matches[j].Category
	})
}

func topMatches(matches []CategoryMatch, limit int) []CategoryMatch {
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]CategoryMatch, len(matches))
	copy(out, matches)
	return out
}

// tokenSetSimilarity 詞集相似度：一方詞集是另一方子集時視為完全相似，
// 否則取交集對聯集的比例
func tokenSetSimilarity(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	if shared == len(setA) || shared == len(setB) {
		return 1.0
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func tokensIntersect(a, b map[string]struct{}) bool {
	for tok := range a {
		if _, ok := b[tok]; ok {
			return true
		}
	}
	return false
}
