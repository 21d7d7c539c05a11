// Package access decides which issues an actor may see or change.
package access

import (
	"strings"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// Query is a caller's list request before scoping.
type Query struct {
	Statuses []domain.IssueStatus
	Search   string
	Limit    int
}

// Scope is a list request after scoping. When ReporterSearch is set the caller
// must resolve it to a reporter identity and narrow Filter.ReporterID.
type Scope struct {
	Filter         repository.IssueFilter
	ReporterSearch string
}

type policy struct {
	visible  func(actor domain.Actor, issue *domain.Issue) bool
	scope    func(actor domain.Actor, q Query) (Scope, error)
	mutating bool
}

var policies = map[domain.Role]policy{
	domain.RoleCitizen: {
		visible: func(actor domain.Actor, issue *domain.Issue) bool {
			return issue.ReporterID == actor.Email
		},
		scope: func(actor domain.Actor, q Query) (Scope, error) {
			email := actor.Email
			return Scope{Filter: repository.IssueFilter{ReporterID: &email, Statuses: q.Statuses, Limit: q.Limit}}, nil
		},
		mutating: true,
	},
	domain.RoleWorker: {
		visible: func(actor domain.Actor, issue *domain.Issue) bool {
			return issue.IsAssignedTo(actor.Email)
		},
		scope: func(actor domain.Actor, q Query) (Scope, error) {
			email := actor.Email
			return Scope{Filter: repository.IssueFilter{AssignedTo: &email, Statuses: q.Statuses, Limit: q.Limit}}, nil
		},
		mutating: true,
	},
	domain.RoleAdmin: {
		visible: func(domain.Actor, *domain.Issue) bool { return true },
		scope: func(_ domain.Actor, q Query) (Scope, error) {
			return Scope{
				Filter:         repository.IssueFilter{Statuses: q.Statuses, Limit: q.Limit},
				ReporterSearch: strings.TrimSpace(q.Search),
			}, nil
		},
		mutating: true,
	},
	domain.RoleService: {
		visible: func(domain.Actor, *domain.Issue) bool { return true },
		scope: func(_ domain.Actor, q Query) (Scope, error) {
			term := strings.TrimSpace(q.Search)
			if term == "" {
				return Scope{}, apperrors.NewValidationError("search term required", nil)
			}
			return Scope{
				Filter:         repository.IssueFilter{Statuses: q.Statuses, Limit: q.Limit},
				ReporterSearch: term,
			}, nil
		},
		mutating: false,
	},
}

// CheckView fails with FORBIDDEN unless actor may read issue.
func CheckView(actor domain.Actor, issue *domain.Issue) error {
	p, ok := policies[actor.Role]
	if !ok || !p.visible(actor, issue) {
		return apperrors.NewForbidden("not authorized to view this issue")
	}
	return nil
}

// CheckMutate fails with FORBIDDEN unless actor may change issue at all.
// Finer per-operation rules live in the lifecycle package.
func CheckMutate(actor domain.Actor, issue *domain.Issue) error {
	if err := CheckView(actor, issue); err != nil {
		return err
	}
	if !policies[actor.Role].mutating {
		return apperrors.NewForbidden("role is read-only")
	}
	return nil
}

// ForList scopes a list query to what actor may see.
func ForList(actor domain.Actor, q Query) (Scope, error) {
	p, ok := policies[actor.Role]
	if !ok {
		return Scope{}, apperrors.NewForbidden("unknown role")
	}
	return p.scope(actor, q)
}
