package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/access"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/geo"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// AssignmentService picks workers for new issues and handles admin reassignment.
type AssignmentService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	IssueRepo  repository.IssueRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// ResolveNearest returns the located worker closest to loc, or nil when the
// directory has none. The directory is read once; no lock is held.
func (s *AssignmentService) ResolveNearest(ctx context.Context, loc domain.Location) (*domain.User, error) {
	role := domain.RoleWorker
	workers, err := s.users.List(ctx, repository.UserFilter{Role: &role, HasLocation: true})
	if err != nil {
		return nil, err
	}
	return nearestWorker(loc, workers), nil
}

// nearestWorker keeps the first candidate at the minimum distance.
func nearestWorker(loc domain.Location, workers []domain.User) *domain.User {
	var (
		best     *domain.User
		bestDist = math.Inf(1)
	)
	for i := range workers {
		w := &workers[i]
		if w.Role != domain.RoleWorker || w.Location == nil {
			continue
		}
		if d := geo.Distance(loc, *w.Location); d < bestDist {
			best, bestDist = w, d
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// AssignWorker reassigns an issue. Admin only; the issue must not be resolved
// and the target must be an existing Worker. Status is left alone.
func (s *AssignmentService) AssignWorker(ctx context.Context, actor domain.Actor, issueID, workerEmail string) (*domain.Issue, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can assign issues")
	}
	workerEmail = domain.NormalizeEmail(workerEmail)
	if workerEmail == "" {
		return nil, apperrors.NewValidationError("workerEmail is required", nil)
	}

	worker, err := s.users.GetByEmail(ctx, workerEmail)
	if err != nil {
		return nil, mapRepoError(err, "worker", map[string]any{"email": workerEmail})
	}
	if worker.Role != domain.RoleWorker {
		return nil, apperrors.NewValidationError("user is not a worker", map[string]any{"email": workerEmail, "role": worker.Role})
	}

	var previous *string
	updated, err := s.issues.Update(ctx, issueID, func(current *domain.Issue) (domain.IssuePatch, error) {
		if err := access.CheckMutate(actor, current); err != nil {
			return domain.IssuePatch{}, err
		}
		if current.Status == domain.IssueStatusResolved {
			return domain.IssuePatch{}, apperrors.NewInvalidTransition(string(current.Status), "reassignment")
		}
		previous = current.AssignedTo
		return domain.IssuePatch{Assignment: &domain.Assignment{Email: worker.Email, Name: worker.FullName()}}, nil
	})
	if err != nil {
		return nil, mapRepoError(err, "issue", map[string]any{"issue_id": issueID})
	}

	publishEvent(ctx, s.dispatcher, s.logger, actor, events.EventIssueAssigned, updated.ID, events.IssueAssignedPayload{
		PreviousAssignee: previous,
		Assignee:         worker.Email,
		AssigneeName:     worker.FullName(),
	}, s.now)
	return updated, nil
}
