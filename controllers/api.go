package controllers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spectrum-keeper/internal/models"
	"spectrum-keeper/services"
)

type APIController struct {
	registry  *services.Registry
	version   string
	startTime time.Time
}

/**
 * Create new API controller instance
 * @param {*services.Registry} registry - Tool registry backing the API
 * @param {string} version - Service version reported by healthz
 */
func NewAPIController(registry *services.Registry, version string) *APIController {
	return &APIController{
		registry:  registry,
		version:   version,
		startTime: time.Now(),
	}
}

/**
 * Register all API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Tool control (list/start/stop)
 * - Service status and readiness
 * - Prometheus metrics
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/tools", a.ListTools)
	api.POST("/tools/:name/start", a.StartTool)
	api.POST("/tools/:name/stop", a.StopTool)
	api.GET("/status", a.Status)
	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// ListTools lists the tool catalog with availability and run state
//
//	@Summary		List all tools
//	@Tags			Tools
//	@Produce		json
//	@Success		200	{array}	models.ToolDetail
//	@Router			/api/v1/tools [get]
func (a *APIController) ListTools(c *gin.Context) {
	c.JSON(200, a.registry.List())
}

// StartTool launches one tool inside the runtime environment
//
//	@Summary		Start tool
//	@Tags			Tools
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		404	{object}	models.ErrorResponse	"Tool not found"
//	@Failure		409	{object}	models.ErrorResponse	"Tool already running"
//	@Router			/api/v1/tools/{name}/start [post]
func (a *APIController) StartTool(c *gin.Context) {
	name := c.Param("name")
	err := a.registry.Start(name)
	switch {
	case errors.Is(err, services.ErrToolNotFound):
		c.JSON(404, models.ErrorResponse{Code: "tool.not_found", Message: "Tool not found"})
	case errors.Is(err, services.ErrToolRunning):
		c.JSON(409, models.ErrorResponse{Code: "tool.already_running", Message: "Tool already running"})
	case err != nil:
		c.JSON(500, models.ErrorResponse{Code: "tool.start_failed", Message: err.Error()})
	default:
		_, running := a.registry.Counts()
		services.SetToolsRunning(running)
		c.JSON(200, gin.H{"status": "starting"})
	}
}

// StopTool terminates a running tool
//
//	@Summary		Stop tool
//	@Tags			Tools
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		404	{object}	models.ErrorResponse	"Tool not found"
//	@Failure		409	{object}	models.ErrorResponse	"Tool not running"
//	@Router			/api/v1/tools/{name}/stop [post]
func (a *APIController) StopTool(c *gin.Context) {
	name := c.Param("name")
	err := a.registry.Stop(name)
	switch {
	case errors.Is(err, services.ErrToolNotFound):
		c.JSON(404, models.ErrorResponse{Code: "tool.not_found", Message: "Tool not found"})
	case errors.Is(err, services.ErrToolNotRunning):
		c.JSON(409, models.ErrorResponse{Code: "tool.not_running", Message: "Tool not running"})
	case err != nil:
		c.JSON(500, models.ErrorResponse{Code: "tool.stop_failed", Message: err.Error()})
	default:
		_, running := a.registry.Counts()
		services.SetToolsRunning(running)
		c.JSON(200, gin.H{"status": "stopped"})
	}
}

// Status reports coarse service state for external monitors
//
//	@Summary		Service status
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	models.StatusResponse
//	@Router			/api/v1/status [get]
func (a *APIController) Status(c *gin.Context) {
	loaded, running := a.registry.Counts()
	c.JSON(200, models.StatusResponse{
		Status:       "running",
		ToolsLoaded:  loaded,
		ToolsRunning: running,
		Timestamp:    time.Now(),
	})
}

// Healthz is the readiness probe
//
//	@Summary		Readiness probe
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	models.HealthResponse
//	@Router			/healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	loaded, running := a.registry.Counts()
	c.JSON(200, models.HealthResponse{
		Version:   a.version,
		StartTime: a.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    time.Since(a.startTime).Round(time.Second).String(),
		Metrics: models.Metrics{
			TotalRequests: services.GetTotalRequestCount(),
			ErrorRequests: services.GetTotalErrorCount(),
			ToolsLoaded:   loaded,
			ToolsRunning:  running,
		},
	})
}
