package quantities

import "time"

// QuantityRecord captures a supervisor's completion-ratio reading for a
// period. The newest record is mirrored onto the contract, which is what
// the payment ceiling reads.
type QuantityRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ContractID      uint      `json:"contract_id" gorm:"index"`
	Period          string    `json:"period" gorm:"size:32"`
	CompletionRatio float64   `json:"completion_ratio"`
	Note            string    `json:"note" gorm:"size:500"`
	CreatedBy       string    `json:"created_by" gorm:"size:64"`
	CreatedAt       time.Time `json:"created_at"`

	Sealed   bool       `json:"sealed" gorm:"default:false"`
	SealedBy *string    `json:"sealed_by,omitempty" gorm:"size:64"`
	SealedAt *time.Time `json:"sealed_at,omitempty"`
	SealedIP *string    `json:"sealed_ip,omitempty" gorm:"size:64"`
}

func (QuantityRecord) TableName() string { return "quantity_records" }
