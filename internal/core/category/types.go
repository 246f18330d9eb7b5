package category

// MatchKind 分類匹配的方式，三種策略互斥
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchFuzzy    MatchKind = "fuzzy"
	MatchSemantic MatchKind = "semantic"
)

// 匹配門檻
const (
	// FuzzyThreshold 編輯距離相似度的保留下限
	FuzzyThreshold = 0.7
	// StrictFuzzyThreshold 嚴格模式下的保留下限
	StrictFuzzyThreshold = 0.85
	// SemanticThreshold 語義匹配的保留下限
	SemanticThreshold = 0.6
	// 語義匹配信心值：同義詞集直接包含 / 僅有交集
	semanticDirectConfidence    = 0.9
	semanticIntersectConfidence = 0.7
	// maxSuggestions 候選列表的最大長度
	maxSuggestions = 5
	// defaultMinConfidence 推薦結果的預設信心值下限
	defaultMinConfidence = 0.3
)

// CategoryMatch 一筆候選分類結果
// 不變量：confidence == 1.0 若且唯若 kind == exact
type CategoryMatch struct {
	Category      string    `json:"category"`
	Confidence    float64   `json:"confidence"`
	MatchKind     MatchKind `json:"match_kind"`
	OriginalInput string    `json:"original_input"`
}

// CategoryAnalysis 解析器對單一輸入的完整輸出
// 建立後不再修改，重新解析會產生新的結果取代舊的
type CategoryAnalysis struct {
	BestMatch          *CategoryMatch  `json:"best_match"`
	ShouldCreateNew    bool            `json:"should_create_new"`
	Suggestions        []CategoryMatch `json:"suggestions"`
	NormalizedCategory string          `json:"normalized_category"`
}

// ResolveOptions 解析選項
type ResolveOptions struct {
	// AllowNewCategories 無匹配時是否允許建立新分類
	AllowNewCategories bool `json:"allow_new_categories"`
	// PreferUserCategories 是否將使用者歷史分類納入候選
	PreferUserCategories bool `json:"prefer_user_categories"`
	// StrictMatching 嚴格模式：提高模糊門檻，僅保留語義直接命中，且不經過快取
	StrictMatching bool `json:"strict_matching"`
}

// DefaultResolveOptions 解析選項預設值
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{
		AllowNewCategories:   true,
		PreferUserCategories: true,
		StrictMatching:       false,
	}
}

// SuggestionSource 推薦信號的來源策略
type SuggestionSource string

const (
	SourceIngredient SuggestionSource = "ingredient"
	SourceMethod     SuggestionSource = "method"
	SourceMealTime   SuggestionSource = "meal_time"
	SourceKeyword    SuggestionSource = "keyword"
	SourceSimilarity SuggestionSource = "similarity"
)

// SuggestionResult 對一份食譜的單筆分類建議
type SuggestionResult struct {
	Category   string           `json:"category"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
	Source     SuggestionSource `json:"source"`
}

// RecipeContent 推薦引擎的輸入內容
type RecipeContent struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// SuggestOptions 推薦選項
type SuggestOptions struct {
	MaxSuggestions     int     `json:"max_suggestions"`
	MinConfidence      float64 `json:"min_confidence"`
	IncludeUserHistory bool    `json:"include_user_history"`
	UserID             string  `json:"user_id,omitempty"`
}

// DefaultSuggestOptions 推薦選項預設值
func DefaultSuggestOptions() SuggestOptions {
	return SuggestOptions{
		MaxSuggestions:     5,
		MinConfidence:      defaultMinConfidence,
		IncludeUserHistory: true,
	}
}

// ValidationResult 對分類名稱異動的裁決
// Errors 非空等價於 IsValid == false；Warnings 只是提示，不阻擋操作
type ValidationResult struct {
	IsValid               bool     `json:"is_valid"`
	Errors                []string `json:"errors"`
	Warnings              []string `json:"warnings"`
	SanitizedValue        string   `json:"sanitized_value,omitempty"`
	SuggestedAlternatives []string `json:"suggested_alternatives,omitempty"`
}

// addError 記錄一個阻擋性問題
func (r *ValidationResult) addError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.IsValid = false
}

// addWarning 記錄一個非阻擋性提示
func (r *ValidationResult) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// MutationOperation 分類名稱異動的種類
type MutationOperation string

const (
	OperationCreate MutationOperation = "create"
	OperationRename MutationOperation = "rename"
	OperationMerge  MutationOperation = "merge"
	OperationDelete MutationOperation = "delete"
)

// ValidationContext 名稱驗證的操作背景
type ValidationContext struct {
	UserID             string
	Operation          MutationOperation
	SkipDuplicateCheck bool
}
