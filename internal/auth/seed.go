package auth

import (
	"context"
	"fmt"
)

type seedUser struct {
	username string
	password string
	role     Role
	company  string
	level    *Level
}

func levelPtr(l Level) *Level { return &l }

var demoUsers = []seedUser{
	{"owner_contract", "Owner123!", RoleOwnerContract, "Employer A", nil},
	{"owner_finance", "Finance123!", RoleOwnerFinance, "Employer A", nil},
	{"owner_legal", "Legal123!", RoleOwnerLegal, "Employer A", nil},
	{"owner_leader", "Leader123!", RoleOwnerLeader, "Employer A", levelPtr(LevelBureauChief)},
	{"owner_leader_section", "Section123!", RoleOwnerLeader, "Employer A", levelPtr(LevelSectionChief)},
	{"owner_leader_director", "Director123!", RoleOwnerLeader, "Employer A", levelPtr(LevelDirector)},
	{"contractor", "Contractor123!", RoleContractor, "Contractor B", nil},
	{"supervisor", "Supervisor123!", RoleSupervisor, "Supervision C", nil},
	{"auditor", "Auditor123!", RoleAuditor, "Audit D", nil},
	{"admin", "Admin123!", RoleAdmin, "", nil},
}

// SeedDemoUsers creates the demo accounts if they do not exist yet.
func SeedDemoUsers(ctx context.Context, repo Repository) error {
	for _, su := range demoUsers {
		existing, err := repo.GetByUsername(ctx, su.username)
		if err != nil {
			return fmt.Errorf("failed to check user %s: %w", su.username, err)
		}
		if existing != nil {
			continue
		}
		hash, err := HashPassword(su.password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", su.username, err)
		}
		user := &User{
			Username:       su.username,
			HashedPassword: hash,
			Role:           su.role,
			Level:          su.level,
			IsActive:       true,
		}
		if su.company != "" {
			company := su.company
			user.Company = &company
		}
		if err := repo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user %s: %w", su.username, err)
		}
	}
	return nil
}
