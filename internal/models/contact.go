package models

import "time"

// ContactMessage is an anonymous public submission from the site contact
// form. Mutated only by the read-flag flip.
type ContactMessage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContactFilter captures filtering criteria for listing contact messages.
type ContactFilter struct {
	Unread   *bool
	Page     int
	PageSize int
}
