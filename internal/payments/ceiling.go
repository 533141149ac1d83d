package payments

// Ceiling is the payment cap derived from a contract's budget, completion
// ratio and cumulative payments.
type Ceiling struct {
	ApprovedBudget  float64 `json:"approved_budget"`
	CompletionRatio float64 `json:"completion_ratio"`
	PaidTotal       float64 `json:"paid_total"`
	PayableLimit    float64 `json:"payable_limit"`
	MaxApply        float64 `json:"max_apply"`
}

// Calc computes the ceiling. Pure: negative intermediate results clamp to
// zero rather than erroring. Callers must recompute at approval time, not
// cache, because completion ratio and paid total move under them.
func Calc(approvedBudget, completionRatio, paidTotal float64) Ceiling {
	payableLimit := approvedBudget * completionRatio
	if payableLimit < 0 {
		payableLimit = 0
	}
	maxApply := payableLimit - paidTotal
	if maxApply < 0 {
		maxApply = 0
	}
	return Ceiling{
		ApprovedBudget:  approvedBudget,
		CompletionRatio: completionRatio,
		PaidTotal:       paidTotal,
		PayableLimit:    payableLimit,
		MaxApply:        maxApply,
	}
}
