package model

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User : учетная запись. Grade, Province, Syllabus хранятся как непрозрачные строки.
type User struct {
	UUID            string    `db:"uuid" json:"id"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	FirstName       string    `db:"first_name" json:"firstName"`
	LastName        string    `db:"last_name" json:"lastName"`
	Grade           string    `db:"grade" json:"grade"`
	Province        string    `db:"province" json:"province"`
	Syllabus        string    `db:"syllabus" json:"syllabus"`
	SchoolName      string    `db:"school_name" json:"schoolName,omitempty"`
	Role            string    `db:"role" json:"role"`
	IsEmailVerified bool      `db:"is_email_verified" json:"isEmailVerified"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}
