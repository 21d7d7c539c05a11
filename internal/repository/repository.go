package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrConflict is returned when an optimistic merge keeps losing races.
	ErrConflict = errors.New("concurrent update conflict")
)

const maxMergeAttempts = 5

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// prepareNew stamps the store-owned fields of a new issue.
func prepareNew(issue *domain.Issue, now time.Time) {
	issue.ID = uuid.NewString()
	issue.CreatedAt = now.UTC().Truncate(time.Microsecond)
	issue.Status = domain.IssueStatusPending
	issue.Comments = []domain.Comment{}
	issue.Rating = nil
	if issue.PhotoURLs == nil {
		issue.PhotoURLs = []string{}
	}
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
