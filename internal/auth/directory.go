package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Directory resolves which account an approval step should be routed to.
// Approval chains name a role and optionally a level; several users may
// match, and some role/level combinations may have nobody configured yet.
type Directory struct {
	repo   Repository
	logger *zap.Logger
}

func NewDirectory(repo Repository, logger *zap.Logger) *Directory {
	return &Directory{repo: repo, logger: logger}
}

// defaultAccounts is the fallback mailbox per role when no exact
// role/level match exists.
var defaultAccounts = map[Role]string{
	RoleOwnerContract: "owner_contract",
	RoleOwnerFinance:  "owner_finance",
	RoleOwnerLegal:    "owner_legal",
	RoleOwnerLeader:   "owner_leader",
	RoleOwnerStaff:    "owner_staff",
}

// ResolveApprover returns the username a task for (role, level) should be
// assigned to. Falls back to the role's default account, then to the
// contract admin mailbox so a notification always has a target.
func (d *Directory) ResolveApprover(ctx context.Context, role Role, level *Level) (string, error) {
	users, err := d.repo.FindByRoleAndLevel(ctx, role, level)
	if err != nil {
		return "", fmt.Errorf("failed to query approvers: %w", err)
	}
	if len(users) > 0 {
		return users[0].Username, nil
	}

	if level != nil {
		// Retry without the level filter before falling back
		users, err = d.repo.FindByRoleAndLevel(ctx, role, nil)
		if err != nil {
			return "", fmt.Errorf("failed to query approvers: %w", err)
		}
		if len(users) > 0 {
			d.logger.Warn("no approver at required level, using role fallback",
				zap.String("role", string(role)),
				zap.String("level", string(*level)))
			return users[0].Username, nil
		}
	}

	if def, ok := defaultAccounts[role]; ok {
		return def, nil
	}
	return defaultAccounts[RoleOwnerContract], nil
}
