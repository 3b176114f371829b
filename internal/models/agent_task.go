package models

import "time"

// AgentTaskType identifies which background agent a task record belongs to.
type AgentTaskType string

const (
	AgentTaskQuoteRequest AgentTaskType = "quote_request"
	AgentTaskLeadResponse AgentTaskType = "lead_response"
)

// AgentTaskStatus is the coarse state of a tracked agent task.
type AgentTaskStatus string

const (
	AgentTaskInProgress AgentTaskStatus = "in_progress"
	AgentTaskCompleted  AgentTaskStatus = "completed"
	AgentTaskFailed     AgentTaskStatus = "failed"
)

// AgentTask is an observability record correlating a user action with the
// background agent work it triggered. Tasks are written once and optionally
// closed out with a result; they are never load-bearing for correctness.
type AgentTask struct {
	ID          string                 `bson:"_id" json:"id"`
	Type        AgentTaskType          `bson:"type" json:"type"`
	Status      AgentTaskStatus        `bson:"status" json:"status"`
	UserID      string                 `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ListingID   string                 `bson:"listing_id,omitempty" json:"listing_id,omitempty"`
	ListingType ListingType            `bson:"listing_type,omitempty" json:"listing_type,omitempty"`
	Metadata    map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Result      map[string]interface{} `bson:"result,omitempty" json:"result,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	CompletedAt *time.Time             `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
