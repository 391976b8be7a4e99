package models

// Deadline is one planner entry on the calendar screen, keyed by day (YYYY-MM-DD).
type Deadline struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Deadline  string `json:"deadline"`
	Details   string `json:"details"`
	Time      string `json:"time"`
	Duration  string `json:"duration"`
	Completed bool   `json:"completed"`
	TimeRange string `json:"timeRange,omitempty"`
}
