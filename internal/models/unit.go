package models

// UnitStatus is the cross-checked view of the background service.
// The init system's idea of "active" can diverge from actual listener
// readiness, so process table and port state are reported alongside it.
type UnitStatus struct {
	Unit           string `json:"unit"`
	Active         bool   `json:"active"`
	ActiveState    string `json:"activeState"`
	Enabled        bool   `json:"enabled"`
	ProcessRunning bool   `json:"processRunning"`
	Pids           []int  `json:"pids,omitempty"`
	PortBound      bool   `json:"portBound"`
	Port           int    `json:"port"`
}

// Converged reports whether all three views agree the service is up.
func (s *UnitStatus) Converged() bool {
	return s.Active && s.ProcessRunning && s.PortBound
}
