package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

type issueRecord struct {
	mu    sync.Mutex
	issue *domain.Issue
}

type memoryIssueRepository struct {
	mu      sync.RWMutex
	records map[string]*issueRecord
	order   []string
	now     func() time.Time
}

// NewMemoryIssueRepository returns a process-local store. Each record carries
// its own lock, so updates to one issue are linearized without blocking others.
func NewMemoryIssueRepository() IssueRepository {
	return &memoryIssueRepository{
		records: make(map[string]*issueRecord),
		now:     time.Now,
	}
}

func (r *memoryIssueRepository) Create(_ context.Context, issue *domain.Issue) error {
	prepareNew(issue, r.now())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[issue.ID]; exists {
		return ErrDuplicate
	}
	r.records[issue.ID] = &issueRecord{issue: issue.Clone()}
	r.order = append(r.order, issue.ID)
	return nil
}

func (r *memoryIssueRepository) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	rec, ok := r.record(id)
	if !ok {
		return nil, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.issue.Clone(), nil
}

func (r *memoryIssueRepository) Scan(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	r.mu.RLock()
	recs := make([]*issueRecord, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		recs = append(recs, r.records[r.order[i]])
	}
	r.mu.RUnlock()

	result := []domain.Issue{}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec.mu.Lock()
		snapshot := rec.issue.Clone()
		rec.mu.Unlock()
		if !filter.Matches(snapshot) {
			continue
		}
		result = append(result, *snapshot)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func (r *memoryIssueRepository) Update(_ context.Context, id string, mutate IssueMutation) (*domain.Issue, error) {
	rec, ok := r.record(id)
	if !ok {
		return nil, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	patch, err := mutate(rec.issue.Clone())
	if err != nil {
		return nil, err
	}
	rec.issue.Apply(patch)
	return rec.issue.Clone(), nil
}

func (r *memoryIssueRepository) record(id string) (*issueRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}
