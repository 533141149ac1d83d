package notifications

import "time"

// Notification is an in-app message for a user. Delivery is best-effort:
// creating one must never fail the business transition that triggered it.
type Notification struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ToUsername string    `json:"to_username" gorm:"size:64;index"`
	Title      string    `json:"title" gorm:"size:200"`
	Content    string    `json:"content" gorm:"size:1000"`
	IsRead     bool      `json:"is_read" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
