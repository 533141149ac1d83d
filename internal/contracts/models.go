package contracts

import "time"

type ContractStatus string

const (
	StatusDraft    ContractStatus = "DRAFT"
	StatusActive   ContractStatus = "ACTIVE"
	StatusArchived ContractStatus = "ARCHIVED"
)

// Contract is the root entity: change and payment requests hang off it,
// and the payment ceiling is computed from its budget, completion ratio
// and cumulative payments.
type Contract struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	ContractNo    string         `json:"contract_no" gorm:"size:64;uniqueIndex"`
	ContractName  string         `json:"contract_name" gorm:"size:200"`
	ProjectName   string         `json:"project_name" gorm:"size:200"`
	OwnerOrg      string         `json:"owner_org" gorm:"size:200"`
	ContractorOrg string         `json:"contractor_org" gorm:"size:200;index"`

	TenderPrice     float64 `json:"tender_price"`
	ContractPrice   float64 `json:"contract_price"`
	PerformanceBond float64 `json:"performance_bond"`

	ApprovedBudget  float64 `json:"approved_budget"`
	CompletionRatio float64 `json:"completion_ratio" gorm:"default:0"`
	PaidTotal       float64 `json:"paid_total" gorm:"default:0"`

	Clauses   *string    `json:"clauses,omitempty" gorm:"type:text"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Status    ContractStatus `json:"status" gorm:"size:32;default:DRAFT"`
	CreatedBy string         `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Contract) TableName() string { return "contracts" }
