package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueCommentAdded  EventType = "issue_comment_added"
)

// AllTypes lists every event the services publish.
func AllTypes() []EventType {
	return []EventType{EventIssueCreated, EventIssueStatusChanged, EventIssueAssigned, EventIssueCommentAdded}
}

// Actor identifies who caused an event.
type Actor struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	IssueID   string    `json:"issue_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	ReporterID string  `json:"reporter_id"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus  domain.IssueStatus `json:"old_status"`
	NewStatus  domain.IssueStatus `json:"new_status"`
	ReporterID string             `json:"reporter_id"`
	Rating     *int               `json:"rating,omitempty"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	PreviousAssignee *string `json:"previous_assignee,omitempty"`
	Assignee         string  `json:"assignee"`
	AssigneeName     string  `json:"assignee_name"`
}

// IssueCommentAddedPayload payload.
type IssueCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	TextPreview string `json:"text_preview"`
}
