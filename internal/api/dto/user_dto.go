package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// UserRegisterRequest payload for new citizens.
type UserRegisterRequest struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password" validate:"required,min=8"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// CreateUserRequest is an admin-created Worker or Service account.
type CreateUserRequest struct {
	FirstName    string           `json:"firstName" validate:"required"`
	LastName     string           `json:"lastName" validate:"required"`
	Email        string           `json:"email" validate:"required,email"`
	MobileNumber string           `json:"mobileNumber"`
	Password     string           `json:"password" validate:"required,min=8"`
	Role         domain.Role      `json:"role" validate:"required,oneof=Worker Service"`
	Location     *LocationPayload `json:"location" validate:"omitempty"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=Citizen Worker Admin Service"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse is the public view of a directory entry.
type UserResponse struct {
	Email        string           `json:"email"`
	FirstName    string           `json:"firstName"`
	LastName     string           `json:"lastName"`
	MobileNumber string           `json:"mobileNumber"`
	Role         domain.Role      `json:"role"`
	Location     *domain.Location `json:"location,omitempty"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		MobileNumber: u.MobileNumber,
		Role:         u.Role,
		Location:     u.Location,
	}
}

// NewUserListResponse maps a slice of users.
func NewUserListResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
