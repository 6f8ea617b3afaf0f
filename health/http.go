package health

import (
	"encoding/json"
	"net/http"
)

// FailureResponse is the body sent with a failing report.
type FailureResponse struct {
	Detail Report `json:"detail"`
}

// Handler returns a handler that runs one aggregation per request.
// A healthy report is sent with 200 as is; an unhealthy one with 417
// Expectation Failed, wrapped as {"detail": report}.
func Handler(ctrl *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, _ := ctrl.Health(r.Context())
		WriteReport(w, report)
	}
}

// WriteReport writes report using the status mapping of Handler.
func WriteReport(w http.ResponseWriter, report Report) {
	w.Header().Set("Content-Type", "application/json")

	if report.Status {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(report)
		return
	}

	w.WriteHeader(http.StatusExpectationFailed)
	_ = json.NewEncoder(w).Encode(FailureResponse{Detail: report})
}
