package approuters

import (
	"Voxline/internal/configuration"
	"Voxline/internal/handler"

	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(api *gin.RouterGroup, container *configuration.Container) {
	monitorGroup := api.Group("/monitor", handler.AuthMiddleware(container.Tokens))
	{
		// GET /api/monitor/stats - Get hub statistics
		monitorGroup.GET("/stats", container.MonitorHandler.GetHubStats)
	}
}
