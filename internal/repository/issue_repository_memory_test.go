package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func newIssue(reporter string) *domain.Issue {
	return &domain.Issue{
		Title:        "Pothole",
		Description:  "Large pothole",
		Category:     "Pothole",
		Location:     domain.Location{Lat: 34.05, Lng: -118.24},
		ReporterID:   reporter,
		ReporterName: "Jane Citizen",
	}
}

func statusPtr(s domain.IssueStatus) *domain.IssueStatus { return &s }

func TestMemoryIssueRepository_CreateStampsStoreFields(t *testing.T) {
	repo := NewMemoryIssueRepository()
	ctx := context.Background()

	issue := newIssue("a@example.com")
	issue.Status = domain.IssueStatusResolved
	rating := 5
	issue.Rating = &rating
	require.NoError(t, repo.Create(ctx, issue))

	assert.NotEmpty(t, issue.ID)
	assert.False(t, issue.CreatedAt.IsZero())
	assert.Equal(t, domain.IssueStatusPending, issue.Status)
	assert.Nil(t, issue.Rating)
	assert.NotNil(t, issue.Comments)
	assert.NotNil(t, issue.PhotoURLs)

	other := newIssue("a@example.com")
	require.NoError(t, repo.Create(ctx, other))
	assert.NotEqual(t, issue.ID, other.ID)

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue, got)
}

func TestMemoryIssueRepository_NotFound(t *testing.T) {
	repo := NewMemoryIssueRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(ctx, "missing", func(*domain.Issue) (domain.IssuePatch, error) {
		t.Fatal("mutate must not run for a missing record")
		return domain.IssuePatch{}, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIssueRepository_ReturnedCopiesAreIsolated(t *testing.T) {
	repo := NewMemoryIssueRepository()
	ctx := context.Background()
	issue := newIssue("a@example.com")
	require.NoError(t, repo.Create(ctx, issue))

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	got.Status = domain.IssueStatusResolved
	got.Comments = append(got.Comments, domain.Comment{ID: "rogue"})

	again, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusPending, again.Status)
	assert.Empty(t, again.Comments)
}

func TestMemoryIssueRepository_FailedMutationWritesNothing(t *testing.T) {
	repo := NewMemoryIssueRepository()
	ctx := context.Background()
	issue := newIssue("a@example.com")
	require.NoError(t, repo.Create(ctx, issue))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, issue.ID, func(current *domain.Issue) (domain.IssuePatch, error) {
		current.Status = domain.IssueStatusResolved
		return domain.IssuePatch{}, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusPending, got.Status)
}

func TestMemoryIssueRepository_Scan(t *testing.T) {
	repo := NewMemoryIssueRepository()
	ctx := context.Background()

	mine := newIssue("a@example.com")
	require.NoError(t, repo.Create(ctx, mine))
	theirs := newIssue("b@example.com")
	require.NoError(t, repo.Create(ctx, theirs))
	_, err := repo.Update(ctx, theirs.ID, func(*domain.Issue) (domain.IssuePatch, error) {
		return domain.IssuePatch{
			Status:     statusPtr(domain.IssueStatusInProgress),
			Assignment: &domain.Assignment{Email: "w@example.com", Name: "W"},
		}, nil
	})
	require.NoError(t, err)

	reporter := "a@example.com"
	got, err := repo.Scan(ctx, IssueFilter{ReporterID: &reporter})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	assignee := "w@example.com"
	got, err = repo.Scan(ctx, IssueFilter{AssignedTo: &assignee})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, theirs.ID, got[0].ID)

	got, err = repo.Scan(ctx, IssueFilter{Statuses: []domain.IssueStatus{domain.IssueStatusPending, domain.IssueStatusForReview}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	got, err = repo.Scan(ctx, IssueFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.Scan(ctx, IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryIssueRepository_ConcurrentDisjointUpdatesBothPersist(t *testing.T) {
	repo := NewMemoryIssueRepository()
	ctx := context.Background()
	issue := newIssue("a@example.com")
	require.NoError(t, repo.Create(ctx, issue))

	const commenters = 50
	var wg sync.WaitGroup
	wg.Add(commenters + 1)
	for i := 0; i < commenters; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, issue.ID, func(*domain.Issue) (domain.IssuePatch, error) {
				return domain.IssuePatch{AppendComments: []domain.Comment{{ID: fmt.Sprintf("c-%d", i), Text: "note"}}}, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	go func() {
		defer wg.Done()
		_, err := repo.Update(ctx, issue.ID, func(*domain.Issue) (domain.IssuePatch, error) {
			return domain.IssuePatch{Status: statusPtr(domain.IssueStatusInProgress)}, nil
		})
		assert.NoError(t, err)
	}()
	wg.Wait()

	got, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusInProgress, got.Status)
	assert.Len(t, got.Comments, commenters)
}

func TestMemoryIssueRepository_MutationSeesLatestState(t *testing.T) {
	repo := NewMemoryIssueRepository()
	ctx := context.Background()
	issue := newIssue("a@example.com")
	require.NoError(t, repo.Create(ctx, issue))

	// only one of many racing check-then-set updates may win
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, issue.ID, func(current *domain.Issue) (domain.IssuePatch, error) {
				if current.Status != domain.IssueStatusPending {
					return domain.IssuePatch{}, errors.New("already moved")
				}
				return domain.IssuePatch{Status: statusPtr(domain.IssueStatusInProgress)}, nil
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
