package handler

import (
	"net/http"
	"strconv"

	"Voxline/internal/hub"

	"github.com/gin-gonic/gin"
)

// MonitorHandler serves relay introspection for operators
type MonitorHandler interface {
	GetHubStats(c *gin.Context)
	Health(c *gin.Context)
}

type monitorHandler struct {
	monitorService *hub.MonitorService
}

func NewMonitorHandler(monitorService *hub.MonitorService) MonitorHandler {
	return &monitorHandler{
		monitorService: monitorService,
	}
}

// GetHubStats reports live sessions, presence counts and calls still
// occupying a pair. ?clients=false omits the per-connection list.
// @Tags Monitor
// @Produce json
// @Success 200 {object} model.MonitorResponse
// @Router /api/monitor/stats [get]
func (h *monitorHandler) GetHubStats(c *gin.Context) {
	includeClients, err := strconv.ParseBool(c.DefaultQuery("clients", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "clients must be true or false"})
		return
	}

	stats := h.monitorService.GetStats()
	if !includeClients {
		stats.Clients = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"HttpStatusCode": http.StatusOK,
		"ResponseBody":   stats,
		"IsSuccess":      true,
		"Message":        "Relay statistics retrieved",
	})
}

// Health answers liveness probes with the live session count
// @Router /healthz [get]
func (h *monitorHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.monitorService.ConnectionCount(),
	})
}
