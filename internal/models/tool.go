package models

import "time"

/**
 * ToolSpec describes one tool in the fixed catalog.
 * @property {string} name - Registry key (e.g. "rtl_scanner")
 * @property {string} title - Human readable name
 * @property {string} module - Python module run inside the runtime environment
 * @property {string} requires - Executable that must exist on the host for the
 *                    tool to be available ("" means always available)
 */
type ToolSpec struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Module      string `json:"module"`
	Requires    string `json:"requires,omitempty"`
}

// ToolDetail is the API view of one registered tool.
type ToolDetail struct {
	Spec      ToolSpec  `json:"info"`
	Status    RunStatus `json:"status"`
	Available bool      `json:"available"`
	Pid       int       `json:"pid,omitempty"`
	StartTime string    `json:"startTime,omitempty"`
}

// StatusResponse is the payload of GET /api/v1/status.
type StatusResponse struct {
	Status       string    `json:"status" example:"running"`
	ToolsLoaded  int       `json:"toolsLoaded" example:"7"`
	ToolsRunning int       `json:"toolsRunning" example:"1"`
	Timestamp    time.Time `json:"timestamp"`
}
