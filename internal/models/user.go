package models

import "time"

// UserRole represents the available staff roles.
type UserRole string

const (
	RoleCreator UserRole = "creator"
	RoleAdmin   UserRole = "admin"
	RoleHead    UserRole = "head"
	RoleTeacher UserRole = "teacher"
)

// roleLevels orders roles for hierarchy checks: creator > admin > head > teacher.
var roleLevels = map[UserRole]int{
	RoleCreator: 4,
	RoleAdmin:   3,
	RoleHead:    2,
	RoleTeacher: 1,
}

// Valid reports whether the role is a supported value.
func (r UserRole) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether the role sits at or above the required role in the
// hierarchy.
func (r UserRole) AtLeast(required UserRole) bool {
	return roleLevels[r] >= roleLevels[required]
}

// User represents a staff member stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateUserRequest is the payload for registering a staff member.
type CreateUserRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     UserRole `json:"role" validate:"required,oneof=creator admin head teacher"`
}

// UpdateUserRequest carries partial changes to a staff member.
type UpdateUserRequest struct {
	Name  *string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email *string   `json:"email,omitempty" validate:"omitempty,email"`
	Role  *UserRole `json:"role,omitempty" validate:"omitempty,oneof=creator admin head teacher"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
