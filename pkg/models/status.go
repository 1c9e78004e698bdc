package models

import "time"

// HealthResponse is the payload returned by the health probes.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Uptime    time.Duration `json:"uptime"`
}

// RunStatus is a point-in-time snapshot of a batch run, served over the
// status API and safe to marshal as-is.
type RunStatus struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	Phase          string    `json:"phase"`
	CurrentKeyword string    `json:"current_keyword,omitempty"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	FailedTasks    int       `json:"failed_tasks"`
	CaptchaPaused  bool      `json:"captcha_paused"`
}
