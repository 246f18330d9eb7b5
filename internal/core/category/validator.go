package category

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"recipe-categorizer/internal/infrastructure/store"
	"recipe-categorizer/internal/pkg/common"
)

// 名稱規則
const (
	maxCategoryNameLength = 50
	// nearDuplicateThreshold 近似重複警告的相似度下限
	nearDuplicateThreshold = 0.6
)

// allowedPunctuation 名稱允許的標點
const allowedPunctuation = "-&'(),."

// reservedNames 保留字，不分大小寫
var reservedNames = map[string]struct{}{
	"all": {}, "none": {}, "undefined": {}, "null": {},
	"uncategorized": {}, "admin": {}, "system": {},
	"default": {}, "temp": {}, "temporary": {},
}

// ValidatorService 分類名稱異動的驗證器。
// 驗證必須看到最新狀態，因此一律直接讀儲存層、不走快取。
type ValidatorService struct {
	store store.RecipeStore
}

// NewValidatorService 建立驗證器
func NewValidatorService(recipeStore store.RecipeStore) *ValidatorService {
	return &ValidatorService{store: recipeStore}
}

// ValidateCategoryName 檢查單一分類名稱是否可用於指定操作
func (s *ValidatorService) ValidateCategoryName(ctx context.Context, name string, vctx ValidationContext) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		result.addError("分類名稱不可為空")
		return result
	}
	if len([]rune(trimmed)) > maxCategoryNameLength {
		result.addError(fmt.Sprintf("分類名稱過長，最多 %d 個字元", maxCategoryNameLength))
	}
	if invalid := invalidRunes(trimmed); invalid != "" {
		result.addError("分類名稱含有不允許的字元: " + invalid)
	}
	if _, reserved := reservedNames[strings.ToLower(trimmed)]; reserved {
		result.addError("分類名稱為保留字: " + trimmed)
	}
	if !result.IsValid {
		result.SuggestedAlternatives = s.generateAlternatives(trimmed)
		return result
	}
	// 通過格式檢查才回填清理後的名稱
	result.SanitizedValue = trimmed

	if vctx.UserID == "" {
		return result
	}

	existing, err := s.store.ListDistinctCategories(ctx, vctx.UserID)
	if err != nil {
		common.LogWarn("取得使用者分類失敗，略過重複檢查",
			zap.String("userID", vctx.UserID),
			zap.Error(err))
		return result
	}

	normalized := Normalize(trimmed)
	for _, category := range existing {
		if strings.EqualFold(category, trimmed) {
			if vctx.Operation == OperationCreate && !vctx.SkipDuplicateCheck {
				result.addError("分類已存在: " + category)
			}
			continue
		}
		if editSimilarity(normalized, Normalize(category)) > nearDuplicateThreshold {
			result.addWarning("與既有分類相似: " + category)
			result.SuggestedAlternatives = append(result.SuggestedAlternatives, category)
		}
	}
	if !result.IsValid && len(result.SuggestedAlternatives) == 0 {
		result.SuggestedAlternatives = s.generateAlternatives(trimmed)
	}
	return result
}

// ValidateRename 檢查重新命名：舊名稱必須有食譜，新名稱走完整建立驗證
func (s *ValidatorService) ValidateRename(ctx context.Context, oldName, newName, userID string) *ValidationResult {
	result := s.ValidateCategoryName(ctx, newName, ValidationContext{
		UserID:    userID,
		Operation: OperationCreate,
	})

	has, err := s.store.HasRecipeWithCategory(ctx, userID, oldName)
	if err != nil {
		common.LogWarn("檢查分類使用狀態失敗",
			zap.String("userID", userID),
			zap.String("category", oldName),
			zap.Error(err))
		result.addError("無法確認原分類狀態: " + oldName)
		return result
	}
	if !has {
		result.addError("原分類沒有任何食譜: " + oldName)
	}
	return result
}

// ValidateMerge 檢查合併：每個來源都要有食譜，目標不可同時是來源
func (s *ValidatorService) ValidateMerge(ctx context.Context, sourceNames []string, targetName, userID string) *ValidationResult {
	result := s.ValidateCategoryName(ctx, targetName, ValidationContext{
		UserID:             userID,
		Operation:          OperationMerge,
		SkipDuplicateCheck: true,
	})

	for _, source := range sourceNames {
		if strings.EqualFold(source, targetName) {
			result.addError("合併目標不可同時是來源: " + targetName)
			continue
		}
		has, err := s.store.HasRecipeWithCategory(ctx, userID, source)
		if err != nil {
			common.LogWarn("檢查分類使用狀態失敗",
				zap.String("userID", userID),
				zap.String("category", source),
				zap.Error(err))
			result.addError("無法確認來源分類狀態: " + source)
			continue
		}
		if !has {
			result.addError("來源分類沒有任何食譜: " + source)
		}
	}
	return result
}

// ValidateDelete 檢查刪除：空分類直接放行，有食譜時必須指定遷移目標或強制刪除
func (s *ValidatorService) ValidateDelete(ctx context.Context, name, moveToName string, forceDelete bool, userID string) *ValidationResult {
	result := &ValidationResult{IsValid: true, SanitizedValue: strings.TrimSpace(name)}

	count, err := s.store.CountRecipesInCategory(ctx, userID, name)
	if err != nil {
		common.LogWarn("取得分類食譜數失敗",
			zap.String("userID", userID),
			zap.String("category", name),
			zap.Error(err))
		result.addError("無法確認分類狀態: " + name)
		return result
	}

	if count == 0 {
		result.addWarning("分類沒有任何食譜，刪除不影響資料: " + name)
		return result
	}

	if moveToName == "" && !forceDelete {
		result.addError(fmt.Sprintf("分類還有 %d 份食譜，須指定遷移目標或強制刪除", count))
		return result
	}

	if moveToName != "" {
		if strings.EqualFold(moveToName, name) {
			result.addError("遷移目標不可與刪除分類相同")
			return result
		}
		target := s.ValidateCategoryName(ctx, moveToName, ValidationContext{
			UserID:             userID,
			Operation:          OperationDelete,
			SkipDuplicateCheck: true,
		})
		result.Errors = append(result.Errors, target.Errors...)
		result.Warnings = append(result.Warnings, target.Warnings...)
		if !target.IsValid {
			result.IsValid = false
		}
		return result
	}

	result.addWarning(fmt.Sprintf("強制刪除將使 %d 份食譜失去分類，無法復原", count))
	return result
}

// invalidRunes 回傳名稱中不允許的字元
func invalidRunes(name string) string {
	var invalid []rune
	seen := make(map[rune]struct{})
	for _, r := range name {
		if isAllowedNameRune(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		invalid = append(invalid, r)
	}
	return string(invalid)
}

func isAllowedNameRune(r rune) bool {
	if r == ' ' {
		return true
	}
	if strings.ContainsRune(allowedPunctuation, r) {
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// generateAlternatives 依固定樣板產生替代名稱，再補上與輸入有字面重疊的靜態分類
func (s *ValidatorService) generateAlternatives(name string) []string {
	base := strings.TrimSpace(name)
	alternatives := []string{
		base + " Recipes",
		"My " + base,
		base + " Collection",
		base + "s",
		"Custom " + base,
	}

	lower := strings.ToLower(base)
	added := 0
	for _, canonical := range CanonicalNames() {
		if added >= 3 {
			break
		}
		canonicalLower := strings.ToLower(canonical)
		if strings.Contains(canonicalLower, lower) || strings.Contains(lower, canonicalLower) {
			alternatives = append(alternatives, canonical)
			added++
		}
	}
	return alternatives
}
