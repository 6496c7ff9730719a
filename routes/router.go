package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixpointrepo/marcom-backend/config"
	"github.com/pixpointrepo/marcom-backend/controllers"
	"github.com/pixpointrepo/marcom-backend/middleware"
	"github.com/pixpointrepo/marcom-backend/store"
	"github.com/pixpointrepo/marcom-backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Serve uploaded thumbnails
	r.Static("/uploads", "./"+cfg.UploadDir)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	analyticsStore := store.NewAnalyticsStore(db)

	authController := controllers.NewAuthController(db)
	articleController := controllers.NewArticleController(db)
	categoryController := controllers.NewCategoryController(db)
	formController := controllers.NewFormController(db)
	analyticsController := controllers.NewAnalyticsController(analyticsStore)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	articles := api.Group("/articles")
	articles.GET("", articleController.ListArticles)
	articles.GET("/homepage", articleController.GetHomepageArticles)
	articles.GET("/categories", articleController.GetArticleCategories)
	articles.GET("/tags", articleController.GetAllTags)
	articles.GET("/url/:url", articleController.GetArticleByURL)
	articles.GET("/:id", articleController.GetArticleByID)
	articles.POST("", middleware.AdminRequired(), articleController.UploadArticle)
	articles.PUT("/:id", middleware.AdminRequired(), articleController.UpdateArticle)
	articles.DELETE("/:id", middleware.AdminRequired(), articleController.DeleteArticle)

	categories := api.Group("/categories")
	categories.GET("", categoryController.GetCategories)
	categories.POST("", middleware.AdminRequired(), categoryController.CreateCategories)
	categories.PUT("/:categoryId", middleware.AdminRequired(), categoryController.UpdateCategory)
	categories.DELETE("/:categoryId", middleware.AdminRequired(), categoryController.DeleteCategory)

	forms := api.Group("/forms")
	forms.POST("/submit", formController.SubmitForm)
	forms.GET("", middleware.AdminRequired(), formController.ListForms)

	// The page-view intake is public (it is called by the reader-facing
	// frontend) and rate limited; every report is admin gated.
	analytics := api.Group("/analytics")
	analytics.POST("/pageview", middleware.RateLimitMiddleware(), analyticsController.RecordPageView)

	reports := analytics.Group("")
	reports.Use(middleware.AdminRequired())
	reports.GET("/total-views", analyticsController.GetTotalPageViews)
	reports.GET("/unique-users", analyticsController.GetUniqueUsers)
	reports.GET("/views-per-article", analyticsController.GetViewsPerArticle)
	reports.GET("/views-over-time", analyticsController.GetViewsOverTime)
	reports.GET("/views-by-category", analyticsController.GetViewsByCategory)
	reports.GET("/overview", analyticsController.GetOverview)
	reports.GET("/article-analytics", analyticsController.GetArticleAnalytics)
	reports.GET("/trends", analyticsController.GetTrends)

	return r
}
