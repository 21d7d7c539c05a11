package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

func sampleIssue() *domain.Issue {
	assignee := "worker@example.com"
	return &domain.Issue{ID: "x", ReporterID: "a@example.com", AssignedTo: &assignee}
}

func TestCheckView(t *testing.T) {
	issue := sampleIssue()
	cases := []struct {
		actor   domain.Actor
		allowed bool
	}{
		{domain.Actor{Email: "a@example.com", Role: domain.RoleCitizen}, true},
		{domain.Actor{Email: "b@example.com", Role: domain.RoleCitizen}, false},
		{domain.Actor{Email: "worker@example.com", Role: domain.RoleWorker}, true},
		{domain.Actor{Email: "worker2@example.com", Role: domain.RoleWorker}, false},
		{domain.Actor{Email: "admin@example.com", Role: domain.RoleAdmin}, true},
		{domain.Actor{Email: "service@example.com", Role: domain.RoleService}, true},
		{domain.Actor{Email: "x@example.com", Role: domain.Role("Guest")}, false},
	}
	for _, tc := range cases {
		err := CheckView(tc.actor, issue)
		if tc.allowed {
			assert.NoError(t, err, tc.actor.Email)
		} else {
			assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), tc.actor.Email)
		}
	}
}

func TestCheckMutate_ServiceIsReadOnly(t *testing.T) {
	err := CheckMutate(domain.Actor{Email: "service@example.com", Role: domain.RoleService}, sampleIssue())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.NoError(t, CheckMutate(domain.Actor{Email: "a@example.com", Role: domain.RoleCitizen}, sampleIssue()))
}

func TestForList(t *testing.T) {
	statuses := []domain.IssueStatus{domain.IssueStatusPending}

	scope, err := ForList(domain.Actor{Email: "a@example.com", Role: domain.RoleCitizen}, Query{Statuses: statuses, Search: "ignored"})
	require.NoError(t, err)
	require.NotNil(t, scope.Filter.ReporterID)
	assert.Equal(t, "a@example.com", *scope.Filter.ReporterID)
	assert.Equal(t, statuses, scope.Filter.Statuses)
	assert.Empty(t, scope.ReporterSearch)

	scope, err = ForList(domain.Actor{Email: "w@example.com", Role: domain.RoleWorker}, Query{})
	require.NoError(t, err)
	require.NotNil(t, scope.Filter.AssignedTo)
	assert.Equal(t, "w@example.com", *scope.Filter.AssignedTo)
	assert.Nil(t, scope.Filter.ReporterID)

	scope, err = ForList(domain.Actor{Role: domain.RoleAdmin}, Query{})
	require.NoError(t, err)
	assert.Nil(t, scope.Filter.ReporterID)
	assert.Nil(t, scope.Filter.AssignedTo)

	_, err = ForList(domain.Actor{Role: domain.RoleService}, Query{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	scope, err = ForList(domain.Actor{Role: domain.RoleService}, Query{Search: " 555-0101 "})
	require.NoError(t, err)
	assert.Equal(t, "555-0101", scope.ReporterSearch)
}
