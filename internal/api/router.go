package api

import (
	"context"
	"fmt"
	"time"

	categoryHandler "recipe-categorizer/internal/api/handlers/category"
	"recipe-categorizer/internal/api/handlers/health"
	"recipe-categorizer/internal/api/middleware"
	"recipe-categorizer/internal/core/cache"
	categoryService "recipe-categorizer/internal/core/category"
	"recipe-categorizer/internal/infrastructure/config"
	"recipe-categorizer/internal/infrastructure/store"
	"recipe-categorizer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 30 * time.Second
	// 請求體大小限制 (1MB)，食譜內容是純文字
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheStore cache.Store, recipeStore store.RecipeStore) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化服務
	resolver := categoryService.NewService(cacheStore, recipeStore, &cfg.Cache)
	suggester := categoryService.NewSuggestionService(cacheStore, recipeStore, &cfg.Cache)
	validator := categoryService.NewValidatorService(recipeStore)
	if resolver == nil || suggester == nil || validator == nil {
		common.LogError("Failed to initialize category services")
		return nil, fmt.Errorf("failed to initialize category services")
	}

	// 全局中間件：設置超時和共用依賴
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("cache_store", cacheStore)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(common.ErrGatewayTimeout.Status, common.ErrorResponse{
				Code:    common.ErrGatewayTimeout.Code,
				Message: common.ErrGatewayTimeout.Message,
				Details: timeoutDuration.String(),
			})
			c.Abort()
			return
		}
	})

	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.JSON(common.ErrNotFound.Status, common.ErrorResponse{
			Code:    common.ErrNotFound.Code,
			Message: common.ErrNotFound.Message,
		})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(common.ErrMethodNotAllowed.Status, common.ErrorResponse{
			Code:    common.ErrMethodNotAllowed.Code,
			Message: common.ErrMethodNotAllowed.Message,
		})
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := categoryHandler.NewHandler(resolver, suggester, validator, cacheStore)

		categoryGroup := api.Group("/category")
		{
			// 分類解析
			categoryGroup.POST("/resolve", handler.HandleResolve)

			// 食譜分類推薦
			categoryGroup.POST("/suggest", handler.HandleSuggest)

			// 分類名稱異動驗證
			categoryGroup.POST("/validate", handler.HandleValidate)

			// 相似分類合併計畫
			categoryGroup.POST("/merge-plan", handler.HandleMergePlan)

			// 分類改名（驗證後執行）
			categoryGroup.POST("/rename", handler.HandleRename)
		}

		// 分類清單
		api.GET("/categories", handler.HandleListCategories)

		// 快取統計
		api.GET("/cache/metrics", handler.HandleCacheMetrics)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
