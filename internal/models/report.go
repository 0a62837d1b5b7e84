package models

import "fmt"

// Outcome classifies a multi-step procedure as a whole.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

/**
 * StepReport collects the result of a best-effort, multi-step procedure.
 * @property {string} Name - Procedure name, shown in summaries
 * @property {Outcome} Outcome - success/partial/failed
 * @property {[]string} Warnings - Ordered non-fatal problems encountered
 * @description
 * Installer steps are largely independent; failures of optional steps are
 * recorded here instead of aborting, so callers (and tests) can assert on
 * outcomes rather than scraping interleaved prints.
 */
type StepReport struct {
	Name     string   `json:"name"`
	Outcome  Outcome  `json:"outcome"`
	Warnings []string `json:"warnings,omitempty"`
}

func NewStepReport(name string) *StepReport {
	return &StepReport{Name: name, Outcome: OutcomeSuccess}
}

// Warnf records a non-fatal problem and downgrades success to partial.
func (r *StepReport) Warnf(format string, v ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
	if r.Outcome == OutcomeSuccess {
		r.Outcome = OutcomePartial
	}
}

// Failf records a fatal problem and marks the procedure failed.
func (r *StepReport) Failf(format string, v ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
	r.Outcome = OutcomeFailed
}

// Merge folds a sub-procedure's report into this one.
func (r *StepReport) Merge(sub *StepReport) {
	for _, w := range sub.Warnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", sub.Name, w))
	}
	switch sub.Outcome {
	case OutcomeFailed:
		r.Outcome = OutcomeFailed
	case OutcomePartial:
		if r.Outcome == OutcomeSuccess {
			r.Outcome = OutcomePartial
		}
	}
}

func (r *StepReport) Ok() bool {
	return r.Outcome != OutcomeFailed
}
