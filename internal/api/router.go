package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandipsawant10/flood-management-sub002/internal/api/handlers"
	"github.com/sandipsawant10/flood-management-sub002/internal/config"
	"github.com/sandipsawant10/flood-management-sub002/internal/core/service"
)

func SetupRouter(cfg *config.Config, svc *service.VerificationService) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	vh := handlers.NewVerificationHandler(svc)
	v1 := router.Group("/v1/verification")
	{
		v1.POST("/reports/:id", vh.VerifyReport)
		v1.POST("/bulk", vh.BulkVerify)
		v1.GET("/reports/:id", vh.ReportStatus)
		v1.GET("/statistics", vh.Statistics)
	}

	return router
}
