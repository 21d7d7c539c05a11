package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

func TestAuthService_RegisterLoginChangePassword(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()

	user, token, err := env.authSvc.Register(ctx, RegisterInput{
		FirstName: "Jane", LastName: "Citizen", Email: "Jane@Example.com", MobileNumber: "555-0101", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, domain.RoleCitizen, user.Role)
	assert.NotEmpty(t, token.Value)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, _, err = env.authSvc.Register(ctx, RegisterInput{FirstName: "J", LastName: "C", Email: "jane@example.com", Password: "password123"})
	requireCode(t, err, apperrors.CodeConflict)
	_, _, err = env.authSvc.Register(ctx, RegisterInput{FirstName: "J", LastName: "C", Email: "short@example.com", Password: "short"})
	requireCode(t, err, apperrors.CodeValidation)
	_, _, err = env.authSvc.Register(ctx, RegisterInput{FirstName: "J", LastName: "C", Email: "not-an-email", Password: "password123"})
	requireCode(t, err, apperrors.CodeValidation)

	_, _, err = env.authSvc.Login(ctx, "jane@example.com", "wrong-password")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, _, err = env.authSvc.Login(ctx, "ghost@example.com", "password123")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, _, err = env.authSvc.Login(ctx, "JANE@example.com", "password123")
	require.NoError(t, err)

	actor := domain.Actor{Email: user.Email, Name: user.FullName(), Role: user.Role}
	requireCode(t, env.authSvc.ChangePassword(ctx, actor, "wrong-password", "new-password"), apperrors.CodeValidation)
	requireCode(t, env.authSvc.ChangePassword(ctx, actor, "password123", "short"), apperrors.CodeValidation)
	require.NoError(t, env.authSvc.ChangePassword(ctx, actor, "password123", "new-password"))
	_, _, err = env.authSvc.Login(ctx, "jane@example.com", "new-password")
	require.NoError(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, env.authSvc.EnsureAdmin(ctx, "", ""))
	require.NoError(t, env.authSvc.EnsureAdmin(ctx, "root@example.com", "password123"))
	require.NoError(t, env.authSvc.EnsureAdmin(ctx, "root@example.com", "different-password"))

	user, _, err := env.authSvc.Login(ctx, "root@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestUserService(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	env.addUser(t, adminX, "", nil)
	env.addUser(t, citizenA, "", nil)

	_, err := env.usersSvc.CreateUser(ctx, citizenA, CreateUserInput{Role: domain.RoleWorker})
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = env.usersSvc.CreateUser(ctx, adminX, CreateUserInput{FirstName: "A", LastName: "B", Email: "x@example.com", Password: "password123", Role: domain.RoleAdmin})
	requireCode(t, err, apperrors.CodeValidation)
	_, err = env.usersSvc.CreateUser(ctx, adminX, CreateUserInput{FirstName: "A", LastName: "B", Email: "svc@example.com", Password: "password123", Role: domain.RoleService, Location: locPtr(1, 1)})
	requireCode(t, err, apperrors.CodeValidation)

	w, err := env.usersSvc.CreateUser(ctx, adminX, CreateUserInput{
		FirstName: "John", LastName: "Worker", Email: "worker@example.com", Password: "password123", Role: domain.RoleWorker,
	})
	require.NoError(t, err)
	assert.Nil(t, w.Location)

	workerActor := domain.Actor{Email: w.Email, Name: w.FullName(), Role: domain.RoleWorker}
	_, err = env.usersSvc.UpdateOwnLocation(ctx, citizenA, locPtr(1, 1))
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = env.usersSvc.UpdateOwnLocation(ctx, workerActor, locPtr(200, 1))
	requireCode(t, err, apperrors.CodeValidation)
	updated, err := env.usersSvc.UpdateOwnLocation(ctx, workerActor, locPtr(34.05, -118.24))
	require.NoError(t, err)
	assert.Equal(t, locPtr(34.05, -118.24), updated.Location)

	// newly located worker is immediately a candidate
	x := env.report(t, citizenA, issueSite)
	require.NotNil(t, x.AssignedTo)
	assert.Equal(t, w.Email, *x.AssignedTo)

	_, err = env.usersSvc.SetLocation(ctx, adminX, citizenA.Email, locPtr(1, 1))
	requireCode(t, err, apperrors.CodeValidation)
	_, err = env.usersSvc.SetLocation(ctx, adminX, "ghost@example.com", locPtr(1, 1))
	requireCode(t, err, apperrors.CodeNotFound)

	demoted, err := env.usersSvc.UpdateRole(ctx, adminX, w.Email, domain.RoleCitizen)
	require.NoError(t, err)
	assert.Nil(t, demoted.Location)
	_, err = env.usersSvc.UpdateRole(ctx, adminX, adminX.Email, domain.RoleCitizen)
	requireCode(t, err, apperrors.CodeValidation)
	_, err = env.usersSvc.UpdateRole(ctx, adminX, w.Email, domain.Role("Mayor"))
	requireCode(t, err, apperrors.CodeValidation)

	role := domain.RoleWorker
	workers, err := env.usersSvc.ListUsers(ctx, adminX, &role)
	require.NoError(t, err)
	assert.Empty(t, workers)
	_, err = env.usersSvc.ListUsers(ctx, citizenA, nil)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestSeedDemoUsers(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, env.usersSvc.SeedDemoUsers(ctx, "password123"))
	require.NoError(t, env.usersSvc.SeedDemoUsers(ctx, "password123"))

	users, err := env.users.List(ctx, repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, len(demoUsers))

	x := env.report(t, domain.Actor{Email: "citizen@example.com", Name: "Jane Citizen", Role: domain.RoleCitizen}, domain.Location{Lat: 34.0522, Lng: -118.2437})
	require.NotNil(t, x.AssignedTo)
	assert.Equal(t, "worker@example.com", *x.AssignedTo)
}
