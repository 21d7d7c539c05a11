package dto

import (
	"strings"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// LocationPayload is a coordinate in degrees. Pointers catch missing fields.
type LocationPayload struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

// ToDomain converts a validated payload.
func (p *LocationPayload) ToDomain() *domain.Location {
	if p == nil || p.Lat == nil || p.Lng == nil {
		return nil
	}
	return &domain.Location{Lat: *p.Lat, Lng: *p.Lng}
}

// PhotoPayload is an inline photo on the JSON create endpoint. Data is base64.
type PhotoPayload struct {
	ContentType string `json:"contentType" validate:"required"`
	Data        []byte `json:"data" validate:"required"`
}

// CreateIssueRequest is the JSON form of a new report.
type CreateIssueRequest struct {
	Description string           `json:"description" validate:"required"`
	Location    *LocationPayload `json:"location" validate:"required"`
	Photos      []PhotoPayload   `json:"photos" validate:"omitempty,dive"`
}

// TransitionRequest moves an issue to a new status.
type TransitionRequest struct {
	Status domain.IssueStatus `json:"status" validate:"required"`
	Rating *int               `json:"rating"`
}

// AssignRequest names the worker to assign.
type AssignRequest struct {
	WorkerEmail string `json:"workerEmail" validate:"required"`
}

// CommentRequest payload.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// ParseStatuses splits a comma separated status filter.
func ParseStatuses(raw string) []domain.IssueStatus {
	var out []domain.IssueStatus
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, domain.IssueStatus(part))
		}
	}
	return out
}
