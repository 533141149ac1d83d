package payments

import "time"

type PaymentStatus string

const (
	PaymentSubmitted      PaymentStatus = "SUBMITTED"
	PaymentContractReview PaymentStatus = "CONTRACT_REVIEW"
	PaymentFinanceReview  PaymentStatus = "FINANCE_REVIEW"
	PaymentPaid           PaymentStatus = "PAID"
	PaymentRejected       PaymentStatus = "REJECTED"
)

// PaymentRequest asks for a disbursement against a contract. Exceeding the
// ceiling does not reject it: IsBlocked flags it while it stays in finance
// review for correction.
type PaymentRequest struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	Code         string        `json:"code" gorm:"size:32;uniqueIndex"`
	ContractID   uint          `json:"contract_id" gorm:"index"`
	Amount       float64       `json:"amount"`
	Purpose      string        `json:"purpose" gorm:"size:300"`
	ProgressDesc string        `json:"progress_desc" gorm:"size:500"`
	Period       string        `json:"period" gorm:"size:32"`
	Status       PaymentStatus `json:"status" gorm:"size:32"`
	IsBlocked    bool          `json:"is_blocked" gorm:"default:false"`
	BlockReason  *string       `json:"block_reason,omitempty" gorm:"size:1000"`
	RejectReason *string       `json:"reject_reason,omitempty" gorm:"size:500"`
	CreatedBy    string        `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (PaymentRequest) TableName() string { return "payment_requests" }
