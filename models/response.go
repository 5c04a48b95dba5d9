package models

// ScrapeResponse is the body for POST /api/v1/scrape.
//
// In sync mode the count fields report the completed run. In async mode
// only Message and RunID are set: the run outcome is not reported back
// to the caller, by contract; it is observable via logs and storage.
type ScrapeResponse struct {
	Message string `json:"message,omitempty"`
	RunID   string `json:"run_id,omitempty"`

	Seen      int `json:"seen,omitempty"`
	Stored    int `json:"stored,omitempty"`
	Duplicate int `json:"duplicate,omitempty"`
	Skipped   int `json:"skipped,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the body for GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	QueueDepth    int    `json:"queue_depth"`
	Workers       int    `json:"workers"`
}
