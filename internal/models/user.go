package models

import "time"

type User struct {
	UserID       string     `json:"user_id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	UserName     string     `json:"user_name"`
	IsActive     bool       `json:"is_active"`
	UserGroup    string     `json:"user_group"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}
