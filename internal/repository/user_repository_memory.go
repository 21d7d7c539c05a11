package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	order []string
}

// NewMemoryUserRepository returns a process-local directory.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]*domain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	stampUser(user, time.Now())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return ErrDuplicate
	}
	stored := cloneUser(user)
	r.users[user.Email] = stored
	r.order = append(r.order, user.Email)
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	email := domain.NormalizeEmail(user.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[email]
	if !ok {
		return ErrNotFound
	}
	user.Email = email
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	r.users[email] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) FindByEmailOrMobile(_ context.Context, term string) (*domain.User, error) {
	term = strings.TrimSpace(term)
	lowered := strings.ToLower(term)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, email := range r.order {
		user := r.users[email]
		if user.Email == lowered || user.MobileNumber == term {
			return cloneUser(user), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.User{}
	for _, email := range r.order {
		user := r.users[email]
		if !filter.Matches(user) {
			continue
		}
		result = append(result, *cloneUser(user))
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func cloneUser(user *domain.User) *domain.User {
	out := *user
	if user.Location != nil {
		loc := *user.Location
		out.Location = &loc
	}
	return &out
}
