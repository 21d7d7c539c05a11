// Package lifecycle holds the issue state machine as data: which status edges
// exist and which parties may take each one.
package lifecycle

import (
	"github.com/spec-kit/civic-issue-service/internal/domain"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// Party is a relationship between an actor and an issue.
type Party string

const (
	PartyAdmin          Party = "admin"
	PartyAssignedWorker Party = "assigned_worker"
	PartyReporter       Party = "reporter"
)

// Edge is a directed status change.
type Edge struct {
	From domain.IssueStatus
	To   domain.IssueStatus
}

// Rule grants an edge to a party. RequiresRating rules must carry a 1-5
// rating; all other rules must carry none.
type Rule struct {
	Party          Party
	RequiresRating bool
}

var transitions = map[Edge][]Rule{
	{domain.IssueStatusPending, domain.IssueStatusInProgress}: {
		{Party: PartyAdmin},
		{Party: PartyAssignedWorker},
	},
	{domain.IssueStatusInProgress, domain.IssueStatusForReview}: {
		{Party: PartyAdmin},
		{Party: PartyAssignedWorker},
	},
	{domain.IssueStatusInProgress, domain.IssueStatusResolved}: {
		{Party: PartyAdmin},
	},
	{domain.IssueStatusForReview, domain.IssueStatusResolved}: {
		{Party: PartyAdmin},
		{Party: PartyReporter, RequiresRating: true},
	},
}

var commentParties = []Party{PartyAdmin, PartyAssignedWorker, PartyReporter}

const (
	MinRating = 1
	MaxRating = 5
)

// PartiesOf lists the relationships the actor holds toward the issue.
func PartiesOf(actor domain.Actor, issue *domain.Issue) []Party {
	var parties []Party
	switch actor.Role {
	case domain.RoleAdmin:
		parties = append(parties, PartyAdmin)
	case domain.RoleWorker:
		if issue.IsAssignedTo(actor.Email) {
			parties = append(parties, PartyAssignedWorker)
		}
	case domain.RoleCitizen:
		if issue.ReporterID == actor.Email {
			parties = append(parties, PartyReporter)
		}
	}
	return parties
}

// Exists reports whether from->to is a defined edge.
func Exists(from, to domain.IssueStatus) bool {
	_, ok := transitions[Edge{From: from, To: to}]
	return ok
}

// Edges returns every defined edge.
func Edges() []Edge {
	out := make([]Edge, 0, len(transitions))
	for edge := range transitions {
		out = append(out, edge)
	}
	return out
}

// IsTerminal reports whether no edge leaves status.
func IsTerminal(status domain.IssueStatus) bool {
	for edge := range transitions {
		if edge.From == status {
			return false
		}
	}
	return true
}

// Authorize validates moving issue to the target status on behalf of actor and
// returns the patch to persist. Nothing is mutated.
func Authorize(actor domain.Actor, issue *domain.Issue, to domain.IssueStatus, rating *int) (domain.IssuePatch, error) {
	if !to.Valid() {
		return domain.IssuePatch{}, apperrors.NewValidationError("unknown status", map[string]any{"status": to})
	}
	rules, ok := transitions[Edge{From: issue.Status, To: to}]
	if !ok {
		return domain.IssuePatch{}, apperrors.NewInvalidTransition(string(issue.Status), string(to))
	}
	rule, ok := matchRule(rules, PartiesOf(actor, issue))
	if !ok {
		return domain.IssuePatch{}, apperrors.NewForbidden("actor not permitted to perform this transition")
	}

	patch := domain.IssuePatch{Status: &to}
	switch {
	case rule.RequiresRating:
		if rating == nil {
			return domain.IssuePatch{}, apperrors.NewValidationError("rating required", nil)
		}
		if *rating < MinRating || *rating > MaxRating {
			return domain.IssuePatch{}, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": *rating})
		}
		value := *rating
		patch.Rating = &value
	case rating != nil:
		return domain.IssuePatch{}, apperrors.NewValidationError("rating is only accepted from the reporter on review", map[string]any{"party": string(rule.Party)})
	}
	return patch, nil
}

// CanComment reports whether actor may append a comment to issue.
func CanComment(actor domain.Actor, issue *domain.Issue) bool {
	for _, held := range PartiesOf(actor, issue) {
		for _, allowed := range commentParties {
			if held == allowed {
				return true
			}
		}
	}
	return false
}

func matchRule(rules []Rule, parties []Party) (Rule, bool) {
	for _, rule := range rules {
		for _, party := range parties {
			if rule.Party == party {
				return rule, true
			}
		}
	}
	return Rule{}, false
}
