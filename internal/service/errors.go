package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// mapRepoError translates repository sentinels. DomainErrors raised inside a
// mutation pass through unchanged.
func mapRepoError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict("concurrent update, retry", details)
	}
	return apperrors.MapError(err)
}

// publishEvent never fails the operation that produced the event.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, actor domain.Actor, eventType events.EventType, issueID string, payload any, now func() time.Time) {
	if dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		IssueID:   issueID,
		Actor:     events.Actor{Email: actor.Email, Role: actor.Role},
		Timestamp: now().UTC(),
		Payload:   payload,
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event publish failed", zap.String("event_type", string(eventType)), zap.String("issue_id", issueID), zap.Error(err))
	}
}
