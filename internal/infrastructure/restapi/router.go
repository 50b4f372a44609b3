package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(tvlHandler *TVLHandler) *gin.Engine {
	router := gin.Default() // Используем gin.Default() для включения стандартных middleware (Logger, Recovery)
	router.Use(cors.Default())

	// Группа для API v1
	v1 := router.Group("/api/v1")
	{
		v1.POST("/tvl", tvlHandler.ComputeTVLHandler)
	}

	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
