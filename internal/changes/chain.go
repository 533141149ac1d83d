package changes

import "contract-platform/contract-portal-backend/internal/auth"

// Step is one entry of an approval chain before it is materialised into
// tasks: a display name, the role that must act, and optionally the level
// that disambiguates users sharing that role.
type Step struct {
	Name  string
	Role  auth.Role
	Level *auth.Level
}

func levelPtr(l auth.Level) *auth.Level { return &l }

func adminStep() Step {
	return Step{Name: "Contract Administrator", Role: auth.RoleOwnerContract}
}

func sectionChiefStep() Step {
	return Step{Name: "Section Chief", Role: auth.RoleOwnerLeader, Level: levelPtr(auth.LevelSectionChief)}
}

func directorStep() Step {
	return Step{Name: "Director", Role: auth.RoleOwnerLeader, Level: levelPtr(auth.LevelDirector)}
}

func bureauChiefStep() Step {
	return Step{Name: "Bureau Chief", Role: auth.RoleOwnerLeader, Level: levelPtr(auth.LevelBureauChief)}
}

func specialApprovalStep() Step {
	return Step{Name: "Special Approval", Role: auth.RoleOwnerLeader, Level: levelPtr(auth.LevelBureauChief)}
}

// tenThousand is the scale the amount tiers are defined on.
const tenThousand = 10000.0

// StepsForAmount maps a change amount to its approval chain. Zero amount
// contributes no steps; the schedule chain or the merge handles it.
func StepsForAmount(amount float64) []Step {
	if amount == 0 {
		return nil
	}
	scaled := amount / tenThousand
	switch {
	case scaled <= 5:
		return []Step{adminStep(), sectionChiefStep()}
	case scaled <= 20:
		return []Step{adminStep(), sectionChiefStep(), directorStep()}
	case scaled <= 100:
		return []Step{adminStep(), sectionChiefStep(), directorStep(), bureauChiefStep()}
	default:
		return []Step{adminStep(), sectionChiefStep(), directorStep(), bureauChiefStep(), specialApprovalStep()}
	}
}

// StepsForScheduleDays maps a schedule extension to its approval chain.
func StepsForScheduleDays(days int) []Step {
	switch {
	case days <= 0:
		return nil
	case days <= 7:
		return []Step{adminStep(), sectionChiefStep()}
	case days <= 30:
		return []Step{adminStep(), sectionChiefStep(), directorStep()}
	default:
		return []Step{adminStep(), sectionChiefStep(), directorStep(), bureauChiefStep()}
	}
}

// MergeSteps combines the amount-derived and schedule-derived chains.
// The chains are computed independently and the deeper one wins: more
// steps means stricter scrutiny. Ties go to the amount chain.
func MergeSteps(amountSteps, scheduleSteps []Step) []Step {
	if len(scheduleSteps) == 0 {
		return amountSteps
	}
	if len(amountSteps) == 0 {
		return scheduleSteps
	}
	if len(amountSteps) >= len(scheduleSteps) {
		return amountSteps
	}
	return scheduleSteps
}

// BuildSteps selects the chain for a change. Submission validation rejects
// changes with zero amount and zero days, so the minimal-chain fallback is
// unreachable through the API; it exists so a selector bug can never yield
// a change with no tasks.
func BuildSteps(amount float64, scheduleDays int) []Step {
	steps := MergeSteps(StepsForAmount(amount), StepsForScheduleDays(scheduleDays))
	if len(steps) == 0 {
		steps = []Step{adminStep(), sectionChiefStep()}
	}
	return steps
}
