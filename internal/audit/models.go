package audit

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a business event. Writes are
// best-effort relative to the operation they describe.
type AuditLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Actor      string         `json:"actor" gorm:"size:64;index"`
	Action     string         `json:"action" gorm:"size:64"`
	EntityType string         `json:"entity_type" gorm:"size:64;index"`
	EntityID   string         `json:"entity_id" gorm:"size:64;index"`
	Detail     string         `json:"detail" gorm:"size:1000"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Filter narrows audit listings.
type Filter struct {
	EntityType string
	EntityID   string
	Actor      string
}
