package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/access"
	"github.com/spec-kit/civic-issue-service/internal/blobstore"
	"github.com/spec-kit/civic-issue-service/internal/classifier"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/lifecycle"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

const (
	maxCommentLength = 2000
	sampleLimit      = 3
)

// IssueService runs the issue lifecycle operations.
type IssueService struct {
	issues         repository.IssueRepository
	users          repository.UserRepository
	assignment     *AssignmentService
	classifier     classifier.Classifier
	photos         blobstore.Store
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	placeholderURL string
	photoBaseURL   string
	maxPhotoBytes  int64
	now            func() time.Time
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo      repository.IssueRepository
	UserRepo       repository.UserRepository
	Assignment     *AssignmentService
	Classifier     classifier.Classifier
	Photos         blobstore.Store
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	PlaceholderURL string
	PhotoBaseURL   string
	MaxPhotoBytes  int64
}

// PhotoUpload is a photo attached to a new report.
type PhotoUpload struct {
	ContentType string
	Data        []byte
}

// CreateIssueInput describes a new report.
type CreateIssueInput struct {
	Description string
	Photos      []PhotoUpload
	Location    *domain.Location
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cls := deps.Classifier
	if cls == nil {
		cls = classifier.Fallback{}
	}
	return &IssueService{
		issues:         deps.IssueRepo,
		users:          deps.UserRepo,
		assignment:     deps.Assignment,
		classifier:     cls,
		photos:         deps.Photos,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
		placeholderURL: deps.PlaceholderURL,
		photoBaseURL:   deps.PhotoBaseURL,
		maxPhotoBytes:  deps.MaxPhotoBytes,
		now:            time.Now,
	}
}

// CreateIssue classifies the report, stores its photos, picks the nearest
// worker and persists the issue. A classifier or photo store failure aborts
// before anything is written to the issue store.
func (s *IssueService) CreateIssue(ctx context.Context, actor domain.Actor, input CreateIssueInput) (*domain.Issue, error) {
	if actor.Role != domain.RoleCitizen {
		return nil, apperrors.NewForbidden("only citizens can report issues")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if err := validateLocation(input.Location); err != nil {
		return nil, err
	}
	images := make([]classifier.Image, 0, len(input.Photos))
	for i, photo := range input.Photos {
		if !strings.HasPrefix(photo.ContentType, "image/") {
			return nil, apperrors.NewValidationError("photos must be images", map[string]any{"index": i, "content_type": photo.ContentType})
		}
		if len(photo.Data) == 0 || (s.maxPhotoBytes > 0 && int64(len(photo.Data)) > s.maxPhotoBytes) {
			return nil, apperrors.NewValidationError("photo size out of range", map[string]any{"index": i, "max_bytes": s.maxPhotoBytes})
		}
		images = append(images, classifier.Image{ContentType: photo.ContentType, Data: photo.Data})
	}

	verdict, err := s.classifier.Classify(ctx, description, images)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("classifier", err)
	}

	photoURLs, err := s.storePhotos(ctx, input.Photos)
	if err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		Title:        verdict.Title,
		Description:  description,
		Category:     classifier.NormalizeCategory(verdict.Category),
		PhotoURLs:    photoURLs,
		Location:     *input.Location,
		ReporterID:   actor.Email,
		ReporterName: actor.Name,
	}
	if worker := s.nearestWorker(ctx, *input.Location); worker != nil {
		email, name := worker.Email, worker.FullName()
		issue.AssignedTo = &email
		issue.AssignedToName = &name
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, mapRepoError(err, "issue", nil)
	}

	s.logger.Info("issue created",
		zap.String("issue_id", issue.ID),
		zap.String("category", issue.Category),
		zap.Bool("assigned", issue.AssignedTo != nil))
	publishEvent(ctx, s.dispatcher, s.logger, actor, events.EventIssueCreated, issue.ID, events.IssueCreatedPayload{
		Category:   issue.Category,
		Title:      issue.Title,
		ReporterID: issue.ReporterID,
		AssignedTo: issue.AssignedTo,
	}, s.now)
	return issue, nil
}

// nearestWorker never fails creation; a directory error leaves the issue unassigned.
func (s *IssueService) nearestWorker(ctx context.Context, loc domain.Location) *domain.User {
	if s.assignment == nil {
		return nil
	}
	worker, err := s.assignment.ResolveNearest(ctx, loc)
	if err != nil {
		s.logger.Warn("worker directory unavailable; issue left unassigned", zap.Error(err))
		return nil
	}
	return worker
}

func (s *IssueService) storePhotos(ctx context.Context, photos []PhotoUpload) ([]string, error) {
	if len(photos) == 0 {
		return []string{s.placeholderURL}, nil
	}
	if s.photos == nil {
		return nil, apperrors.NewDependencyFailure("photo store", errors.New("photo store not configured"))
	}
	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		key, err := s.photos.Put(ctx, blobstore.Blob{ContentType: photo.ContentType, Data: photo.Data})
		if err != nil {
			return nil, apperrors.NewDependencyFailure("photo store", err)
		}
		urls = append(urls, blobstore.URL(s.photoBaseURL, key))
	}
	return urls, nil
}

// ListIssues returns the issues visible to actor, newest first.
func (s *IssueService) ListIssues(ctx context.Context, actor domain.Actor, query access.Query) ([]domain.Issue, error) {
	for _, status := range query.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
	}
	scope, err := access.ForList(actor, query)
	if err != nil {
		return nil, err
	}
	if scope.ReporterSearch != "" {
		reporter, err := s.users.FindByEmailOrMobile(ctx, scope.ReporterSearch)
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Issue{}, nil
		}
		if err != nil {
			return nil, mapRepoError(err, "user", nil)
		}
		scope.Filter.ReporterID = &reporter.Email
	}
	return s.scan(ctx, scope.Filter)
}

// ListSamples returns the latest issues in a public-facing status. No actor.
func (s *IssueService) ListSamples(ctx context.Context, status domain.IssueStatus) ([]domain.Issue, error) {
	if status != domain.IssueStatusInProgress && status != domain.IssueStatusResolved {
		return nil, apperrors.NewValidationError("samples are available for In Progress and Resolved only", map[string]any{"status": status})
	}
	return s.scan(ctx, repository.IssueFilter{Statuses: []domain.IssueStatus{status}, Limit: sampleLimit})
}

func (s *IssueService) scan(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	issues, err := s.issues.Scan(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "issue", nil)
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	if filter.Limit > 0 && len(issues) > filter.Limit {
		issues = issues[:filter.Limit]
	}
	return issues, nil
}

// GetIssue returns one issue if actor may see it.
func (s *IssueService) GetIssue(ctx context.Context, actor domain.Actor, id string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "issue", map[string]any{"issue_id": id})
	}
	if err := access.CheckView(actor, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// TransitionStatus moves an issue along the lifecycle. Rating is only
// accepted, and then required, when the reporter resolves a reviewed issue.
func (s *IssueService) TransitionStatus(ctx context.Context, actor domain.Actor, id string, to domain.IssueStatus, rating *int) (*domain.Issue, error) {
	var from domain.IssueStatus
	updated, err := s.issues.Update(ctx, id, func(current *domain.Issue) (domain.IssuePatch, error) {
		if err := access.CheckMutate(actor, current); err != nil {
			return domain.IssuePatch{}, err
		}
		from = current.Status
		return lifecycle.Authorize(actor, current, to, rating)
	})
	if err != nil {
		return nil, mapRepoError(err, "issue", map[string]any{"issue_id": id})
	}

	s.logger.Info("issue status changed",
		zap.String("issue_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("actor", actor.Email))
	publishEvent(ctx, s.dispatcher, s.logger, actor, events.EventIssueStatusChanged, id, events.IssueStatusChangedPayload{
		OldStatus:  from,
		NewStatus:  updated.Status,
		ReporterID: updated.ReporterID,
		Rating:     updated.Rating,
	}, s.now)
	return updated, nil
}

// AssignWorker delegates admin reassignment.
func (s *IssueService) AssignWorker(ctx context.Context, actor domain.Actor, id, workerEmail string) (*domain.Issue, error) {
	if s.assignment == nil {
		return nil, apperrors.NewInternalError(errors.New("assignment service not configured"))
	}
	return s.assignment.AssignWorker(ctx, actor, id, workerEmail)
}

// AddComment appends a comment authored by actor.
func (s *IssueService) AddComment(ctx context.Context, actor domain.Actor, id, text string) (*domain.Issue, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}
	if len(text) > maxCommentLength {
		return nil, apperrors.NewValidationError("comment too long", map[string]any{"max_length": maxCommentLength})
	}

	comment := domain.Comment{
		ID:         uuid.NewString(),
		AuthorID:   actor.Email,
		AuthorName: actor.Name,
		Text:       text,
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
	}
	updated, err := s.issues.Update(ctx, id, func(current *domain.Issue) (domain.IssuePatch, error) {
		if err := access.CheckMutate(actor, current); err != nil {
			return domain.IssuePatch{}, err
		}
		if !lifecycle.CanComment(actor, current) {
			return domain.IssuePatch{}, apperrors.NewForbidden("not permitted to comment on this issue")
		}
		return domain.IssuePatch{AppendComments: []domain.Comment{comment}}, nil
	})
	if err != nil {
		return nil, mapRepoError(err, "issue", map[string]any{"issue_id": id})
	}

	preview := text
	if runes := []rune(preview); len(runes) > 80 {
		preview = string(runes[:80])
	}
	publishEvent(ctx, s.dispatcher, s.logger, actor, events.EventIssueCommentAdded, id, events.IssueCommentAddedPayload{
		CommentID:   comment.ID,
		AuthorID:    comment.AuthorID,
		TextPreview: preview,
	}, s.now)
	return updated, nil
}

func validateLocation(loc *domain.Location) error {
	if loc == nil {
		return apperrors.NewValidationError("location is required", nil)
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return apperrors.NewValidationError("location out of range", map[string]any{"lat": loc.Lat, "lng": loc.Lng})
	}
	return nil
}
