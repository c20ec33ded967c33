package models

import "time"

// NotificationType identifies the underlying record of a feed item.
type NotificationType string

const (
	NotificationTypeContact NotificationType = "CONTACT_MESSAGE"
	NotificationTypeLetter  NotificationType = "LETTER"
	NotificationTypeReport  NotificationType = "FINANCIAL_REPORT"
)

// NotificationItem is a derived view over one pending record. Produced
// fresh on every aggregation call; never stored.
type NotificationItem struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Time        time.Time        `json:"time"`
	Link        string           `json:"link"`
}

// NotificationCounts carries the scalar badge numbers, computed
// independently of the capped item lists.
type NotificationCounts struct {
	UnreadContacts int `json:"unread_contacts"`
	UnreadChats    int `json:"unread_chats"`
	PendingLetters int `json:"pending_letters"`
	PendingReports int `json:"pending_reports"`
	Total          int `json:"total"`
}

// NotificationFeed is the aggregated, role-filtered notification payload.
type NotificationFeed struct {
	Counts NotificationCounts `json:"counts"`
	Items  []NotificationItem `json:"items"`
}
