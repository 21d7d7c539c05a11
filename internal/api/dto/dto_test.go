package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

func f(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	ok := CreateIssueRequest{Description: "pothole", Location: &LocationPayload{Lat: f(0), Lng: f(0)}}
	require.NoError(t, Validate(ok))

	err := Validate(CreateIssueRequest{Location: &LocationPayload{Lat: f(91), Lng: f(0)}})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "CreateIssueRequest.Description")
	assert.Contains(t, de.Details, "CreateIssueRequest.Location.Lat")

	err = Validate(CreateUserRequest{FirstName: "a", LastName: "b", Email: "a@b.co", Password: "password123", Role: domain.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, "oneof", apperrors.ToDomainError(err).Details["CreateUserRequest.Role"])
}

func TestLocationPayload(t *testing.T) {
	assert.Nil(t, (*LocationPayload)(nil).ToDomain())
	assert.Equal(t, &domain.Location{Lat: 1, Lng: 2}, (&LocationPayload{Lat: f(1), Lng: f(2)}).ToDomain())
}

func TestParseStatuses(t *testing.T) {
	assert.Nil(t, ParseStatuses(""))
	assert.Equal(t, []domain.IssueStatus{domain.IssueStatusInProgress, domain.IssueStatusResolved}, ParseStatuses("In Progress, Resolved,"))
}
