package health

import (
	"context"
)

// Checker is the optional health-probe capability of a plugin.
//
// Health returns free-form details on success. An error marks the check as
// failed; the controller records its message under the "error" key.
// Implementations should honor ctx cancellation.
type Checker interface {
	Health(ctx context.Context) (map[string]any, error)
}

// Check is the outcome of one plugin's probe.
type Check struct {
	Name    string         `json:"name"`
	Status  bool           `json:"status"`
	Details map[string]any `json:"details"`
}

// Report is the aggregate of all probes of one run, in registration order.
type Report struct {
	Status bool    `json:"status"`
	Checks []Check `json:"checks"`
}

// Failed returns the checks whose status is false.
func (r Report) Failed() []Check {
	var failed []Check
	for _, c := range r.Checks {
		if !c.Status {
			failed = append(failed, c)
		}
	}
	return failed
}

func passed(name string, details map[string]any) Check {
	if details == nil {
		details = map[string]any{}
	}
	return Check{Name: name, Status: true, Details: details}
}

func failed(name string, err error) Check {
	return Check{
		Name:    name,
		Status:  false,
		Details: map[string]any{"error": err.Error()},
	}
}

func newReport(checks []Check) Report {
	status := true
	for _, c := range checks {
		status = status && c.Status
	}
	if checks == nil {
		checks = []Check{}
	}
	return Report{Status: status, Checks: checks}
}
