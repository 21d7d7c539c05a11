package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

var validate = validator.New()

// AuthService coordinates registration, login and password changes.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
}

// RegisterInput describes a citizen sign-up.
type RegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
	Password     string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Register creates a Citizen account and signs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, domain.Token, error) {
	user, err := s.newUser(input.FirstName, input.LastName, input.Email, input.MobileNumber, input.Password, domain.RoleCitizen)
	if err != nil {
		return nil, domain.Token{}, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.Token{}, mapRepoError(err, "user", map[string]any{"email": user.Email})
	}

	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("citizen registered", zap.String("email", user.Email))
	return user, token, nil
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, domain.Token{}, mapRepoError(err, "user", nil)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, current, next string) error {
	if len(next) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	user, err := s.users.GetByEmail(ctx, actor.Email)
	if err != nil {
		return mapRepoError(err, "user", map[string]any{"email": actor.Email})
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return mapRepoError(s.users.Update(ctx, user), "user", nil)
}

// EnsureAdmin creates the bootstrap admin if the email is unused. An existing
// account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non-admin", zap.String("email", existing.Email), zap.String("role", string(existing.Role)))
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	user, err := s.newUser("System", "Admin", email, "", password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.users.Create(ctx, user); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("email", user.Email))
	return nil
}

func (s *AuthService) newUser(first, last, email, mobile, password string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, apperrors.NewValidationError("a valid email is required", map[string]any{"email": email})
	}
	if first == "" || last == "" {
		return nil, apperrors.NewValidationError("first and last name are required", nil)
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		MobileNumber: strings.TrimSpace(mobile),
		Role:         role,
	}, nil
}
