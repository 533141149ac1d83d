package contracts

import (
	"math"

	"contract-platform/contract-portal-backend/internal/apperr"
)

const priceEpsilon = 1e-6

// PerformanceBond is fixed at 10% of the tender price.
func PerformanceBond(tenderPrice float64) float64 {
	return math.Round(tenderPrice*0.10*100) / 100
}

// EnforcePriceEqualsTender is the rigid pricing rule: the contract price
// must match the winning tender price exactly.
func EnforcePriceEqualsTender(tenderPrice, contractPrice float64) error {
	if math.Abs(tenderPrice-contractPrice) > priceEpsilon {
		return apperr.Validationf("contract price must equal tender price")
	}
	return nil
}
