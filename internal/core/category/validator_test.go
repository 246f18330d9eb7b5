package category

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-categorizer/internal/infrastructure/store"
)

func newTestValidator(t *testing.T) (*ValidatorService, *store.Memory) {
	t.Helper()
	recipeStore := store.NewMemory()
	return NewValidatorService(recipeStore), recipeStore
}

func createContext(userID string) ValidationContext {
	return ValidationContext{UserID: userID, Operation: OperationCreate}
}

func TestValidateCategoryNameAccepted(t *testing.T) {
	validator, _ := newTestValidator(t)

	for _, name := range []string{"Weeknight Dinners", "Mom's Pies", "Tex-Mex", "30 Minute Meals", "Soups & Stews"} {
		result := validator.ValidateCategoryName(context.Background(), name, createContext("u1"))
		assert.True(t, result.IsValid, "name: %s, errors: %v", name, result.Errors)
		assert.Empty(t, result.Errors)
	}
}

func TestValidateCategoryNameEmpty(t *testing.T) {
	validator, _ := newTestValidator(t)

	for _, name := range []string{"", "   "} {
		result := validator.ValidateCategoryName(context.Background(), name, createContext("u1"))
		assert.False(t, result.IsValid, "name: %q", name)
	}
}

func TestValidateCategoryNameTooLong(t *testing.T) {
	validator, _ := newTestValidator(t)

	result := validator.ValidateCategoryName(context.Background(), strings.Repeat("a", 51), createContext("u1"))
	assert.False(t, result.IsValid)

	result = validator.ValidateCategoryName(context.Background(), strings.Repeat("a", 50), createContext("u1"))
	assert.True(t, result.IsValid)
}

func TestValidateCategoryNameBadCharacters(t *testing.T) {
	validator, _ := newTestValidator(t)

	for _, name := range []string{"Tacos!", "Quick <Meals>", "Pasta #1", "Desserts/Sweets"} {
		result := validator.ValidateCategoryName(context.Background(), name, createContext("u1"))
		assert.False(t, result.IsValid, "name: %s", name)
	}
}

func TestValidateCategoryNameReservedWords(t *testing.T) {
	validator, _ := newTestValidator(t)

	for _, name := range []string{"Uncategorized", "Admin", "ALL", "system", "Temp"} {
		result := validator.ValidateCategoryName(context.Background(), name, createContext("u1"))
		require.False(t, result.IsValid, "name: %s", name)

		found := false
		for _, msg := range result.Errors {
			if strings.Contains(msg, "保留字") {
				found = true
			}
		}
		assert.True(t, found, "錯誤訊息應說明保留字原因: %v", result.Errors)
		assert.NotEmpty(t, result.SuggestedAlternatives)
	}
}

func TestValidateCategoryNameAlternatives(t *testing.T) {
	validator, _ := newTestValidator(t)

	result := validator.ValidateCategoryName(context.Background(), "Admin", createContext("u1"))
	require.False(t, result.IsValid)

	assert.Contains(t, result.SuggestedAlternatives, "Admin Recipes")
	assert.Contains(t, result.SuggestedAlternatives, "My Admin")
	assert.Contains(t, result.SuggestedAlternatives, "Custom Admin")
}

func TestValidateCategoryNameDuplicate(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Desserts")

	// 大小寫不同仍算重複
	result := validator.ValidateCategoryName(context.Background(), "desserts", createContext("u1"))
	assert.False(t, result.IsValid)

	// 跳過重複檢查時放行
	result = validator.ValidateCategoryName(context.Background(), "desserts", ValidationContext{
		UserID:             "u1",
		Operation:          OperationCreate,
		SkipDuplicateCheck: true,
	})
	assert.True(t, result.IsValid)
}

func TestValidateCategoryNameNearDuplicateWarns(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Dessert")

	result := validator.ValidateCategoryName(context.Background(), "Desserts", createContext("u1"))

	// 近似重複只警告，不阻擋
	assert.True(t, result.IsValid)
	assert.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.SuggestedAlternatives, "Dessert")
}

func TestValidateCategoryNameFixedPoint(t *testing.T) {
	validator, _ := newTestValidator(t)
	ctx := context.Background()

	result := validator.ValidateCategoryName(ctx, "  Weeknight Dinners  ", createContext("u1"))
	require.True(t, result.IsValid)

	again := validator.ValidateCategoryName(ctx, result.SanitizedValue, createContext("u1"))
	assert.True(t, again.IsValid)
	assert.Equal(t, result.SanitizedValue, again.SanitizedValue)
}

func TestValidateRename(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Old Name")

	result := validator.ValidateRename(context.Background(), "Old Name", "New Name", "u1")
	assert.True(t, result.IsValid, "errors: %v", result.Errors)
}

func TestValidateRenameMissingSource(t *testing.T) {
	validator, _ := newTestValidator(t)

	result := validator.ValidateRename(context.Background(), "Ghost", "New Name", "u1")
	assert.False(t, result.IsValid)
}

func TestValidateRenameToReservedName(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Old Name")

	result := validator.ValidateRename(context.Background(), "Old Name", "Uncategorized", "u1")
	assert.False(t, result.IsValid)
}

func TestValidateMerge(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Dessert")
	recipeStore.AddRecipe("u1", "r2", "Sweets")
	recipeStore.AddRecipe("u1", "r3", "Desserts")

	// 合併目標允許已存在
	result := validator.ValidateMerge(context.Background(), []string{"Dessert", "Sweets"}, "Desserts", "u1")
	assert.True(t, result.IsValid, "errors: %v", result.Errors)
}

func TestValidateMergeTargetInSources(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Dessert")

	result := validator.ValidateMerge(context.Background(), []string{"Dessert", "Desserts"}, "Desserts", "u1")
	assert.False(t, result.IsValid)
}

func TestValidateMergeEmptySource(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Dessert")

	result := validator.ValidateMerge(context.Background(), []string{"Dessert", "Ghost"}, "Sweets", "u1")
	assert.False(t, result.IsValid)
}

func TestValidateDeleteEmptyCategory(t *testing.T) {
	validator, _ := newTestValidator(t)

	result := validator.ValidateDelete(context.Background(), "EmptyCategory", "", false, "u1")

	// 沒有食譜的分類隨時可刪，只提示
	assert.True(t, result.IsValid)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidateDeleteNonEmptyNeedsTargetOrForce(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	for i := 0; i < 10; i++ {
		recipeStore.AddRecipe("u1", "r"+strings.Repeat("x", i+1), "Desserts")
	}

	result := validator.ValidateDelete(context.Background(), "Desserts", "", false, "u1")
	require.False(t, result.IsValid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "10")
}

func TestValidateDeleteWithMoveTarget(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Desserts")

	result := validator.ValidateDelete(context.Background(), "Desserts", "Snacks", false, "u1")
	assert.True(t, result.IsValid, "errors: %v", result.Errors)
}

func TestValidateDeleteMoveTargetSameAsName(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Desserts")

	result := validator.ValidateDelete(context.Background(), "Desserts", "desserts", false, "u1")
	assert.False(t, result.IsValid)
}

func TestValidateDeleteForce(t *testing.T) {
	validator, recipeStore := newTestValidator(t)
	recipeStore.AddRecipe("u1", "r1", "Desserts")
	recipeStore.AddRecipe("u1", "r2", "Desserts")

	result := validator.ValidateDelete(context.Background(), "Desserts", "", true, "u1")

	require.True(t, result.IsValid)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "2")
}

func TestValidateDeleteStoreFailure(t *testing.T) {
	validator := NewValidatorService(&failingStore{})

	result := validator.ValidateDelete(context.Background(), "Desserts", "", false, "u1")
	assert.False(t, result.IsValid)
}

func TestValidateCategoryNameSanitizedValueOnlyOnSchemaPass(t *testing.T) {
	validator, _ := newTestValidator(t)
	ctx := context.Background()

	ok := validator.ValidateCategoryName(ctx, "  Tex-Mex  ", createContext(""))
	require.True(t, ok.IsValid)
	assert.Equal(t, "Tex-Mex", ok.SanitizedValue)

	// 沒通過格式檢查就不該有清理後的名稱
	tooLong := validator.ValidateCategoryName(ctx, strings.Repeat("a", 51), createContext(""))
	require.False(t, tooLong.IsValid)
	assert.Empty(t, tooLong.SanitizedValue)

	reserved := validator.ValidateCategoryName(ctx, "Admin", createContext(""))
	require.False(t, reserved.IsValid)
	assert.Empty(t, reserved.SanitizedValue)
}
