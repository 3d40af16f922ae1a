package models

import "time"

// User is a platform account. The password hash never leaves the logic layer.
type User struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	IsAdmin            bool      `json:"is_admin"`
	EmailNotifications bool      `json:"email_notifications"`
	CreatedAt          time.Time `json:"created_at"`
}

// Email is an outgoing transactional message.
type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// UserList is one page of the admin user listing.
type UserList struct {
	Users []User `json:"users"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total int64  `json:"total"`
}
