package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
)

func TestPerformanceBond(t *testing.T) {
	assert.InDelta(t, 1000000, PerformanceBond(10000000), 0.001)
	assert.InDelta(t, 1234.57, PerformanceBond(12345.678), 0.001)
	assert.Zero(t, PerformanceBond(0))
}

func TestEnforcePriceEqualsTender(t *testing.T) {
	assert.NoError(t, EnforcePriceEqualsTender(10000000, 10000000))
	assert.NoError(t, EnforcePriceEqualsTender(100, 100.0000001))

	err := EnforcePriceEqualsTender(10000000, 9999999)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCanView(t *testing.T) {
	company := "Northern Construction Group"
	c := &Contract{ContractorOrg: company}

	owner := auth.Identity{Username: "owner", Role: auth.RoleOwnerContract}
	assert.True(t, CanView(owner, c))

	aud := auth.Identity{Username: "aud", Role: auth.RoleAuditor}
	assert.True(t, CanView(aud, c))

	mine := auth.Identity{Username: "c1", Role: auth.RoleContractor, Company: &company}
	assert.True(t, CanView(mine, c))

	other := "Rival Builders"
	rival := auth.Identity{Username: "c2", Role: auth.RoleContractor, Company: &other}
	assert.False(t, CanView(rival, c))
}
