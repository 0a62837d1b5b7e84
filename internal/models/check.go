package models

import "time"

// CheckResult is the outcome of one advisory diagnostic probe.
// @Description Single health check result with remediation hint
type CheckResult struct {
	Name   string `json:"name" example:"unit-active"`
	Passed bool   `json:"passed" example:"true"`
	Detail string `json:"detail" example:"systemd reports active"`
	Hint   string `json:"hint,omitempty" example:"systemctl start spectrumsnek"`
}

// DiagnosisReport aggregates all probes, worst-case.
// @Description Aggregated diagnostics; healthy only if every check passed
type DiagnosisReport struct {
	Timestamp    time.Time     `json:"timestamp"`
	Checks       []CheckResult `json:"checks"`
	Healthy      bool          `json:"healthy"`
	TotalChecks  int           `json:"totalChecks"`
	PassedChecks int           `json:"passedChecks"`
	FailedChecks int           `json:"failedChecks"`
}

// Aggregate recomputes the summary fields from the check list.
func (d *DiagnosisReport) Aggregate() {
	d.TotalChecks = len(d.Checks)
	d.PassedChecks = 0
	for _, c := range d.Checks {
		if c.Passed {
			d.PassedChecks++
		}
	}
	d.FailedChecks = d.TotalChecks - d.PassedChecks
	d.Healthy = d.FailedChecks == 0 && d.TotalChecks > 0
}
