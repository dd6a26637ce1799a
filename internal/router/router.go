package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "fleetdocs/docs" // registers swagger docs
	"fleetdocs/internal/handler"
	"fleetdocs/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	analysisH *handler.AnalysisHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.GET("/categories", analysisH.Categories)

	ships := v1.Group("/ships/:ship_id")
	ships.POST("/documents/:category/analyze", analysisH.Analyze)
	ships.GET("/records", analysisH.ListRecords)
	ships.GET("/records/export", analysisH.Export)

	records := v1.Group("/records")
	records.GET("/:id", analysisH.GetRecord)
	records.GET("/:id/file-url", analysisH.GetFileURL)

	return r
}
