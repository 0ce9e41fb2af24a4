package router

import (
	"net/http"

	"thyrosight/api"
	"thyrosight/config"
	"thyrosight/database"
	_ "thyrosight/docs"
	"thyrosight/middleware"
	"thyrosight/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *service.AssessmentService) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(CORSMiddleware())

	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		auth.Use(middleware.LoginRateLimit(cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)

			assessmentHandler := api.NewAssessmentHandler(svc)
			exportHandler := api.NewExportHandler(svc)
			assessments := authorized.Group("/assessments")
			{
				assessments.POST("", assessmentHandler.Submit)
				assessments.POST("/predict", middleware.PredictRateLimit(cfg.RateLimit.PredictMax), assessmentHandler.Predict)
				assessments.GET("", assessmentHandler.List)
				assessments.GET("/export", exportHandler.ExportExcel)
				assessments.GET("/:id", assessmentHandler.Get)
				assessments.DELETE("/:id", assessmentHandler.Delete)
			}
		}
	}

	return r
}

// healthCheck 数据库不可达时返回 503
func healthCheck(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "unknown"}
	if database.DB != nil {
		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status["status"] = "degraded"
			status["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "up"
	}
	c.JSON(http.StatusOK, status)
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
