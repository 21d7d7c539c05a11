package domain

import (
	"strings"
	"time"
)

// Role enumerates actor roles.
type Role string

const (
	RoleCitizen Role = "Citizen"
	RoleWorker  Role = "Worker"
	RoleAdmin   Role = "Admin"
	RoleService Role = "Service"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleWorker, RoleAdmin, RoleService:
		return true
	}
	return false
}

// User is a directory entry. Email is the identity key.
type User struct {
	Email        string    `json:"email" bson:"_id"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	LastName     string    `json:"lastName" bson:"lastName"`
	MobileNumber string    `json:"mobileNumber" bson:"mobileNumber"`
	Role         Role      `json:"role" bson:"role"`
	Location     *Location `json:"location,omitempty" bson:"location,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FullName returns the display name used for denormalized snapshots.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lowercases and trims an email for use as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
