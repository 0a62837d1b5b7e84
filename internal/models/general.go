package models

// RunStatus is the lifecycle state of a supervised process.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusStopped RunStatus = "stopped"
	StatusExited  RunStatus = "exited"
	StatusError   RunStatus = "error"
)

type HealthyStatus int

const (
	Healthy HealthyStatus = iota
	Unavailable
)

// ErrorResponse is the JSON error body returned by API handlers.
type ErrorResponse struct {
	Code    string `json:"code" example:"tool.not_found"`
	Message string `json:"message" example:"Tool not found"`
}
