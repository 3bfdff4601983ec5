package models

import "gorm.io/gorm"

// Role is a closed set. Handlers must switch on these constants instead of
// comparing raw strings from the request.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
)

type User struct {
	gorm.Model
	Name          string `gorm:"not null"`
	Email         string `gorm:"unique;not null"`
	PasswordHash  string `gorm:"not null" json:"-"`
	Role          Role   `gorm:"default:student"`
	StudentData   *StudentData
	ProfessorData *ProfessorData
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsProfessor() bool {
	return u.Role == RoleProfessor
}

type StudentData struct {
	gorm.Model
	UserID         uint `gorm:"uniqueIndex"`
	Group          string
	EnrollmentYear int
}

type ProfessorData struct {
	gorm.Model
	UserID     uint `gorm:"uniqueIndex"`
	Department string
	Title      string
}
