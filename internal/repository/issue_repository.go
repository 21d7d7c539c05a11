package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// IssueFilter narrows a scan. Nil/empty fields match everything; Limit <= 0
// means no limit.
type IssueFilter struct {
	ReporterID *string
	AssignedTo *string
	Statuses   []domain.IssueStatus
	Limit      int
}

// Matches evaluates the filter in memory.
func (f IssueFilter) Matches(issue *domain.Issue) bool {
	if f.ReporterID != nil && issue.ReporterID != *f.ReporterID {
		return false
	}
	if f.AssignedTo != nil && !issue.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, status := range f.Statuses {
			if issue.Status == status {
				return true
			}
		}
		return false
	}
	return true
}

// IssueMutation inspects the current record and returns the change to apply.
// Returning an error aborts the update without writing.
type IssueMutation func(current *domain.Issue) (domain.IssuePatch, error)

// IssueRepository is the authoritative issue store.
//
// Update holds the record exclusively while mutate runs and merges only the
// fields named by the returned patch, so concurrent writers to disjoint
// fields never clobber each other. Scan returns newest first.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	Scan(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	Update(ctx context.Context, id string, mutate IssueMutation) (*domain.Issue, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates the Postgres-backed repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, photo_urls, location_lat, location_lng,
               status, created_at, reporter_id, reporter_name, assigned_to, assigned_to_name, rating`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	prepareNew(issue, time.Now())
	const query = `
        INSERT INTO issues (id, title, description, category, photo_urls, location_lat, location_lng,
            status, created_at, reporter_id, reporter_name, assigned_to, assigned_to_name)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.PhotoURLs,
		issue.Location.Lat,
		issue.Location.Lng,
		issue.Status,
		issue.CreatedAt,
		issue.ReporterID,
		issue.ReporterName,
		issue.AssignedTo,
		issue.AssignedToName,
	)
	return err
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	issue, err := r.fetchSingle(ctx, r.pool, `SELECT `+issueColumns+` FROM issues WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachComments(ctx, r.pool, []*domain.Issue{issue}); err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) Scan(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY created_at DESC`, issueColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*domain.Issue, len(issues))
	for i := range issues {
		ptrs[i] = &issues[i]
	}
	if err := r.attachComments(ctx, r.pool, ptrs); err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *issueRepository) Update(ctx context.Context, id string, mutate IssueMutation) (*domain.Issue, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	issue, err := r.fetchSingle(ctx, tx, `SELECT `+issueColumns+` FROM issues WHERE id=$1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachComments(ctx, tx, []*domain.Issue{issue}); err != nil {
		return nil, err
	}

	patch, err := mutate(issue.Clone())
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return issue, tx.Commit(ctx)
	}

	sets := []string{}
	args := []any{}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.Assignment != nil {
		args = append(args, patch.Assignment.Email, patch.Assignment.Name)
		sets = append(sets, fmt.Sprintf("assigned_to=$%d", len(args)-1), fmt.Sprintf("assigned_to_name=$%d", len(args)))
	}
	if patch.Rating != nil {
		args = append(args, *patch.Rating)
		sets = append(sets, fmt.Sprintf("rating=$%d", len(args)))
	}
	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf("UPDATE issues SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, err
		}
	}

	const insertComment = `
        INSERT INTO issue_comments (id, issue_id, author_id, author_name, text, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	for _, c := range patch.AppendComments {
		if _, err := tx.Exec(ctx, insertComment, c.ID, id, c.AuthorID, c.AuthorName, c.Text, c.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	issue.Apply(patch)
	return issue, nil
}

func (r *issueRepository) fetchSingle(ctx context.Context, q querier, query string, id string) (*domain.Issue, error) {
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, ErrNotFound
	}
	return &issues[0], nil
}

func (r *issueRepository) attachComments(ctx context.Context, q querier, issues []*domain.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	ids := make([]string, len(issues))
	byID := make(map[string]*domain.Issue, len(issues))
	for i, issue := range issues {
		ids[i] = issue.ID
		byID[issue.ID] = issue
	}

	const query = `
        SELECT id, issue_id, author_id, author_name, text, created_at
        FROM issue_comments WHERE issue_id = ANY($1) ORDER BY seq ASC`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       domain.Comment
			issueID string
		)
		if err := rows.Scan(&c.ID, &issueID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return err
		}
		if issue, ok := byID[issueID]; ok {
			issue.Comments = append(issue.Comments, c)
		}
	}
	return rows.Err()
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	defer rows.Close()
	result := []domain.Issue{}
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.PhotoURLs,
			&issue.Location.Lat,
			&issue.Location.Lng,
			&issue.Status,
			&issue.CreatedAt,
			&issue.ReporterID,
			&issue.ReporterName,
			&issue.AssignedTo,
			&issue.AssignedToName,
			&issue.Rating,
		); err != nil {
			return nil, err
		}
		if issue.PhotoURLs == nil {
			issue.PhotoURLs = []string{}
		}
		issue.Comments = []domain.Comment{}
		result = append(result, issue)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return result, nil
}
