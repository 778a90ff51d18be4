package entity

import (
	"time"
)

// Role is the coarse privilege tier of an account.
type Role string

const (
	RoleMember   Role = "member"
	RoleGuardian Role = "guardian"
	RoleAdmin    Role = "admin"
)

// Status is the account lifecycle state, richer than the IsActive boolean.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

// User is the aggregate root for the account domain.
// PasswordHash and ParentalPasscodeHash hold bcrypt hashes of two
// independent secrets; they are never compared against each other.
type User struct {
	ID                   string
	Email                string
	Name                 string
	PasswordHash         string
	ParentalPasscodeHash string // empty means no passcode is set
	Role                 Role
	IsActive             bool
	Status               Status
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewUser builds an account with registration defaults. The status
// invariant is applied before the value is returned.
func NewUser(email, name, passwordHash string) *User {
	u := &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         RoleMember,
		IsActive:     true,
		Status:       StatusActive,
	}
	u.ReconcileStatus()
	return u
}

// ReconcileStatus keeps the IsActive flag and the lifecycle Status from
// contradicting each other. Pending accounts are left alone regardless of
// the flag. The function is idempotent and must be called after every
// field mutation, not only at construction.
func (u *User) ReconcileStatus() {
	switch {
	case !u.IsActive && u.Status == StatusActive:
		u.Status = StatusInactive
	case u.IsActive && u.Status == StatusInactive:
		u.Status = StatusActive
	}
}

// IsAdmin reports whether the account holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasParentalPasscode reports whether a parental passcode is currently set.
func (u *User) HasParentalPasscode() bool {
	return u.ParentalPasscodeHash != ""
}
