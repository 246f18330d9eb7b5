package category

import (
	"errors"
	"net/http"

	"recipe-categorizer/internal/core/cache"
	categoryService "recipe-categorizer/internal/core/category"
	"recipe-categorizer/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResolveRequest 分類解析請求
type ResolveRequest struct {
	Input   string `json:"input" binding:"required"` // 欲解析的分類字串
	UserID  string `json:"user_id,omitempty"`        // 使用者範圍，可省略
	Options *categoryService.ResolveOptions `json:"options,omitempty"`
}

// SuggestRequest 分類推薦請求
type SuggestRequest struct {
	Content categoryService.RecipeContent  `json:"content" binding:"required"`
	Options *categoryService.SuggestOptions `json:"options,omitempty"`
}

// ValidateRequest 分類名稱異動驗證請求，依 operation 分流
type ValidateRequest struct {
	Operation   categoryService.MutationOperation `json:"operation" binding:"required"`
	UserID      string                            `json:"user_id" binding:"required"`
	Name        string                            `json:"name,omitempty"`
	OldName     string                            `json:"old_name,omitempty"`
	NewName     string                            `json:"new_name,omitempty"`
	SourceNames []string                          `json:"source_names,omitempty"`
	TargetName  string                            `json:"target_name,omitempty"`
	MoveTo      string                            `json:"move_to,omitempty"`
	ForceDelete bool                              `json:"force_delete,omitempty"`

	SkipDuplicateCheck bool `json:"skip_duplicate_check,omitempty"`
}

// MergePlanRequest 相似分類合併計畫請求
type MergePlanRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// RenameRequest 分類改名請求
type RenameRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	OldName string `json:"old_name" binding:"required"`
	NewName string `json:"new_name" binding:"required"`
}

// Handler 分類處理程序
type Handler struct {
	resolver   *categoryService.Service
	suggester  *categoryService.SuggestionService
	validator  *categoryService.ValidatorService
	cacheStore cache.Store
}

// NewHandler 創建新的分類處理程序
func NewHandler(resolver *categoryService.Service, suggester *categoryService.SuggestionService, validator *categoryService.ValidatorService, cacheStore cache.Store) *Handler {
	return &Handler{
		resolver:   resolver,
		suggester:  suggester,
		validator:  validator,
		cacheStore: cacheStore,
	}
}

// respondError 將錯誤轉換為統一的 API 錯誤響應
func respondError(c *gin.Context, err error) {
	var ce *common.CustomError
	if !errors.As(err, &ce) {
		ce = common.ErrInternalError
	}
	c.JSON(ce.Status, common.ErrorResponse{
		Code:    ce.Code,
		Message: ce.Message,
	})
}

// HandleResolve 解析輸入字串為最佳分類
func (h *Handler) HandleResolve(c *gin.Context) {
	requestID := requestid.Get(c)

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, common.ErrInvalidRequest)
		return
	}

	opts := categoryService.DefaultResolveOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	common.LogInfo("開始處理分類解析請求",
		zap.String("request_id", requestID),
		zap.String("input", req.Input),
		zap.Bool("strict", opts.StrictMatching),
	)

	analysis, err := h.resolver.FindBestCategory(c.Request.Context(), req.Input, req.UserID, opts)
	if err != nil {
		common.LogError("分類解析失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// HandleSuggest 根據食譜內容推薦分類
func (h *Handler) HandleSuggest(c *gin.Context) {
	requestID := requestid.Get(c)

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, common.ErrInvalidRequest)
		return
	}
	if req.Content.Title == "" {
		respondError(c, common.NewError(common.ErrCodeInvalidRequest, "食譜標題為必填", http.StatusBadRequest, nil))
		return
	}

	opts := categoryService.DefaultSuggestOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	common.LogInfo("開始處理分類推薦請求",
		zap.String("request_id", requestID),
		zap.String("title", req.Content.Title),
		zap.Int("ingredients", len(req.Content.Ingredients)),
	)

	suggestions, err := h.suggester.SuggestCategories(c.Request.Context(), req.Content, opts)
	if err != nil {
		common.LogError("分類推薦失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// HandleValidate 驗證分類名稱異動
func (h *Handler) HandleValidate(c *gin.Context) {
	requestID := requestid.Get(c)

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, common.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	var result *categoryService.ValidationResult

	switch req.Operation {
	case categoryService.OperationCreate:
		result = h.validator.ValidateCategoryName(ctx, req.Name, categoryService.ValidationContext{
			UserID:             req.UserID,
			Operation:          categoryService.OperationCreate,
			SkipDuplicateCheck: req.SkipDuplicateCheck,
		})
	case categoryService.OperationRename:
		result = h.validator.ValidateRename(ctx, req.OldName, req.NewName, req.UserID)
	case categoryService.OperationMerge:
		result = h.validator.ValidateMerge(ctx, req.SourceNames, req.TargetName, req.UserID)
	case categoryService.OperationDelete:
		result = h.validator.ValidateDelete(ctx, req.Name, req.MoveTo, req.ForceDelete, req.UserID)
	default:
		respondError(c, common.NewError(common.ErrCodeInvalidRequest, "不支援的操作類型: "+string(req.Operation), http.StatusBadRequest, nil))
		return
	}

	common.LogInfo("分類驗證完成",
		zap.String("request_id", requestID),
		zap.String("operation", string(req.Operation)),
		zap.Bool("is_valid", result.IsValid),
		zap.Int("warnings", len(result.Warnings)),
	)

	c.JSON(http.StatusOK, result)
}

// HandleMergePlan 產生相似分類的合併計畫
func (h *Handler) HandleMergePlan(c *gin.Context) {
	requestID := requestid.Get(c)

	var req MergePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, common.ErrInvalidRequest)
		return
	}

	plan, err := h.resolver.MergeSimilarCategories(c.Request.Context(), req.UserID)
	if err != nil {
		common.LogError("產生合併計畫失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, err)
		return
	}
	if plan == nil {
		plan = []categoryService.MergePlanEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// HandleRename 驗證後執行分類改名
func (h *Handler) HandleRename(c *gin.Context) {
	requestID := requestid.Get(c)

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, common.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	result := h.validator.ValidateRename(ctx, req.OldName, req.NewName, req.UserID)
	if !result.IsValid {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	updated, err := h.resolver.ApplyRename(ctx, req.UserID, req.OldName, req.NewName)
	if err != nil {
		common.LogError("分類改名失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"updated":  updated,
		"warnings": result.Warnings,
	})
}

// HandleListCategories 回傳使用者介面顯示用的分類清單
func (h *Handler) HandleListCategories(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		// 未指定使用者時回傳完整靜態分類表
		c.JSON(http.StatusOK, gin.H{"categories": categoryService.CanonicalNames()})
		return
	}

	categories, err := h.resolver.GetDisplayCategories(c.Request.Context(), userID)
	if err != nil {
		common.LogError("取得分類清單失敗",
			zap.Error(err),
			zap.String("userID", userID),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// HandleCacheMetrics 回傳快取命中統計
func (h *Handler) HandleCacheMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.cacheStore.Metrics())
}
