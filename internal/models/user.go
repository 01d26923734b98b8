package models

import (
	"net/url"
	"strings"
	"time"
)

// Role is stored upper-case in the database and exposed lower-case over the API.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole maps an API role string to a Role. Unknown values fall back to student.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleTeacher:
		return RoleTeacher
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// APIName returns the lower-case form used in responses.
func (r Role) APIName() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	default:
		return "student"
	}
}

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	FullName string `gorm:"not null" json:"full_name"`
	Role     Role   `gorm:"type:varchar(16);not null;default:STUDENT" json:"role"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
	Avatar   string `json:"avatar"`

	// Declared for the foreign keys only; never preloaded.
	Posts        []Post        `gorm:"foreignKey:AuthorID" json:"-"`
	Comments     []Comment     `gorm:"foreignKey:AuthorID" json:"-"`
	PostVotes    []PostVote    `gorm:"foreignKey:UserID" json:"-"`
	CommentVotes []CommentVote `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// DefaultAvatar returns a generated initials avatar for a new account.
func DefaultAvatar(fullName string) string {
	return "https://ui-avatars.com/api/?name=" + url.PathEscape(fullName) + "&background=52c41a&color=fff"
}
