package models

// HealthResponse is the readiness payload of GET /healthz.
// @Description Health check API response
type HealthResponse struct {
	Version   string  `json:"version" example:"1.0.0"`
	StartTime string  `json:"startTime" example:"2024-01-01T10:00:00Z"`
	Status    string  `json:"status" example:"UP"`
	Uptime    string  `json:"uptime" example:"1h30m45s"`
	Metrics   Metrics `json:"metrics"`
}

// Metrics summarizes the request counters for the health endpoint.
type Metrics struct {
	TotalRequests int64 `json:"totalRequests" example:"1000"`
	ErrorRequests int64 `json:"errorRequests" example:"5"`
	ToolsLoaded   int   `json:"toolsLoaded" example:"7"`
	ToolsRunning  int   `json:"toolsRunning" example:"1"`
}
