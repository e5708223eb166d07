package models

import "time"

// Job is one request to render a video from a script.
type Job struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	ScriptID     string     `json:"script_id"`
	Status       string     `json:"status"`
	FilePath     string     `json:"file_path,omitempty"`
	Error        string     `json:"error,omitempty"`
	Publish      bool       `json:"publish"`
	PostID       string     `json:"post_id,omitempty"`
	StoryID      string     `json:"story_id,omitempty"`
	PublishError string     `json:"publish_error,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Job statuses. Transitions are pending -> processing -> completed|failed;
// completed and failed are terminal.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Terminal reports whether the job has reached a final status.
func (j Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
