package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// UserService administers the user directory, including worker locations.
type UserService struct {
	users  repository.UserRepository
	auth   *AuthService
	logger *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo repository.UserRepository
	Auth     *AuthService
	Logger   *zap.Logger
}

// CreateUserInput describes an admin-created account.
type CreateUserInput struct {
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
	Password     string
	Role         domain.Role
	Location     *domain.Location
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: deps.UserRepo, auth: deps.Auth, logger: logger}
}

// ListUsers returns the directory in creation order, optionally by role.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, role *domain.Role) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can list users")
	}
	if role != nil && !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *role})
	}
	users, err := s.users.List(ctx, repository.UserFilter{Role: role})
	if err != nil {
		return nil, mapRepoError(err, "user", nil)
	}
	return users, nil
}

// CreateUser adds a Worker or Service account.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can create users")
	}
	if input.Role != domain.RoleWorker && input.Role != domain.RoleService {
		return nil, apperrors.NewValidationError("admins may create Worker or Service accounts only", map[string]any{"role": input.Role})
	}
	if input.Location != nil {
		if input.Role != domain.RoleWorker {
			return nil, apperrors.NewValidationError("only workers carry a location", nil)
		}
		if err := validateLocation(input.Location); err != nil {
			return nil, err
		}
	}

	user, err := s.auth.newUser(input.FirstName, input.LastName, input.Email, input.MobileNumber, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	user.Location = input.Location
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"email": user.Email})
	}
	s.logger.Info("user created", zap.String("email", user.Email), zap.String("role", string(user.Role)), zap.String("by", actor.Email))
	return user, nil
}

// UpdateRole changes another user's role. Admins cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.Actor, email string, role domain.Role) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can change roles")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"email": email})
	}
	if user.Email == domain.NormalizeEmail(actor.Email) && role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("admins cannot change their own role", nil)
	}
	user.Role = role
	if role != domain.RoleWorker {
		user.Location = nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"email": email})
	}
	return user, nil
}

// SetLocation records a worker's location on their behalf.
func (s *UserService) SetLocation(ctx context.Context, actor domain.Actor, email string, loc *domain.Location) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can set other users' locations")
	}
	return s.setLocation(ctx, email, loc)
}

// UpdateOwnLocation lets a worker report where they are.
func (s *UserService) UpdateOwnLocation(ctx context.Context, actor domain.Actor, loc *domain.Location) (*domain.User, error) {
	if actor.Role != domain.RoleWorker {
		return nil, apperrors.NewForbidden("only workers report a location")
	}
	return s.setLocation(ctx, actor.Email, loc)
}

func (s *UserService) setLocation(ctx context.Context, email string, loc *domain.Location) (*domain.User, error) {
	if err := validateLocation(loc); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"email": email})
	}
	if user.Role != domain.RoleWorker {
		return nil, apperrors.NewValidationError("only workers carry a location", map[string]any{"email": user.Email, "role": user.Role})
	}
	value := *loc
	user.Location = &value
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"email": email})
	}
	return user, nil
}

// demoUsers mirrors the accounts a fresh development install ships with.
var demoUsers = []CreateUserInput{
	{FirstName: "Jane", LastName: "Citizen", Email: "citizen@example.com", MobileNumber: "555-0101", Role: domain.RoleCitizen},
	{FirstName: "John", LastName: "Worker", Email: "worker@example.com", MobileNumber: "555-0102", Role: domain.RoleWorker, Location: &domain.Location{Lat: 34.0522, Lng: -118.2437}},
	{FirstName: "Maria", LastName: "Garcia", Email: "worker2@example.com", MobileNumber: "555-0105", Role: domain.RoleWorker, Location: &domain.Location{Lat: 34.1522, Lng: -118.3437}},
	{FirstName: "Alice", LastName: "Admin", Email: "admin@example.com", MobileNumber: "555-0103", Role: domain.RoleAdmin},
	{FirstName: "Sam", LastName: "Service", Email: "service@example.com", MobileNumber: "555-0104", Role: domain.RoleService},
}

// SeedDemoUsers inserts the development accounts, all sharing password.
// Accounts that already exist are skipped.
func (s *UserService) SeedDemoUsers(ctx context.Context, password string) error {
	for _, input := range demoUsers {
		user, err := s.auth.newUser(input.FirstName, input.LastName, input.Email, input.MobileNumber, password, input.Role)
		if err != nil {
			return err
		}
		if input.Location != nil {
			loc := *input.Location
			user.Location = &loc
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return err
		}
	}
	s.logger.Info("demo users seeded", zap.Int("count", len(demoUsers)))
	return nil
}
