package auth

import "time"

// Role is the closed set of account roles. Keeping it a typed string catches
// mismatched role literals at compile time while serializing cleanly.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleContractor    Role = "CONTRACTOR"
	RoleOwnerContract Role = "OWNER_CONTRACT"
	RoleOwnerFinance  Role = "OWNER_FINANCE"
	RoleOwnerLegal    Role = "OWNER_LEGAL"
	RoleOwnerLeader   Role = "OWNER_LEADER"
	RoleOwnerStaff    Role = "OWNER_STAFF"
	RoleSupervisor    Role = "SUPERVISOR"
	RoleAuditor       Role = "AUDITOR"
)

// Level disambiguates users sharing a role, e.g. the three leader tiers.
type Level string

const (
	LevelSectionChief Level = "SECTION_CHIEF"
	LevelDirector     Level = "DIRECTOR"
	LevelBureauChief  Level = "BUREAU_CHIEF"
)

// OwnerRoles are the employer-side roles that may view everything.
var OwnerRoles = []Role{
	RoleAdmin, RoleAuditor, RoleOwnerContract, RoleOwnerStaff,
	RoleOwnerFinance, RoleOwnerLegal, RoleOwnerLeader, RoleSupervisor,
}

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:64;uniqueIndex"`
	HashedPassword string    `json:"-" gorm:"size:255"`
	Role           Role      `json:"role" gorm:"size:64;index"`
	Level          *Level    `json:"level,omitempty" gorm:"size:64"`
	Company        *string   `json:"company,omitempty" gorm:"size:128"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	Username string  `json:"username"`
	Role     Role    `json:"role"`
	Level    *Level  `json:"level,omitempty"`
	Company  *string `json:"company,omitempty"`
}

// IsOwnerSide reports whether the role belongs to the employer organisation.
func (i Identity) IsOwnerSide() bool {
	for _, r := range OwnerRoles {
		if i.Role == r {
			return true
		}
	}
	return false
}
