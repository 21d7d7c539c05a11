package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	w1 := &domain.User{Email: " Worker@Example.com", FirstName: "John", LastName: "Worker", MobileNumber: "555-0102", Role: domain.RoleWorker, Location: &domain.Location{Lat: 1, Lng: 1}}
	w2 := &domain.User{Email: "worker2@example.com", FirstName: "Maria", LastName: "Garcia", Role: domain.RoleWorker}
	c := &domain.User{Email: "citizen@example.com", FirstName: "Jane", LastName: "Citizen", MobileNumber: "555-0101", Role: domain.RoleCitizen}
	for _, u := range []*domain.User{w1, w2, c} {
		require.NoError(t, repo.Create(ctx, u))
	}
	assert.Equal(t, "worker@example.com", w1.Email)
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Email: "WORKER@example.com"}), ErrDuplicate)

	got, err := repo.GetByEmail(ctx, "WORKER@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "John Worker", got.FullName())

	_, err = repo.GetByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	byMobile, err := repo.FindByEmailOrMobile(ctx, "555-0101")
	require.NoError(t, err)
	assert.Equal(t, c.Email, byMobile.Email)
	byEmail, err := repo.FindByEmailOrMobile(ctx, "Citizen@Example.com")
	require.NoError(t, err)
	assert.Equal(t, c.Email, byEmail.Email)

	role := domain.RoleWorker
	workers, err := repo.List(ctx, UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, w1.Email, workers[0].Email)
	assert.Equal(t, w2.Email, workers[1].Email)

	located, err := repo.List(ctx, UserFilter{Role: &role, HasLocation: true})
	require.NoError(t, err)
	require.Len(t, located, 1)
	assert.Equal(t, w1.Email, located[0].Email)

	w2.Location = &domain.Location{Lat: 2, Lng: 2}
	require.NoError(t, repo.Update(ctx, w2))
	located, err = repo.List(ctx, UserFilter{Role: &role, HasLocation: true})
	require.NoError(t, err)
	assert.Len(t, located, 2)

	assert.ErrorIs(t, repo.Update(ctx, &domain.User{Email: "ghost@x.com"}), ErrNotFound)
}
