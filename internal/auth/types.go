package auth

import (
	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// Role is the single authoritative application role of an identity.
type Role string

const (
	// RoleProducer is a content producer. Highest resolution priority.
	RoleProducer Role = "producer"
	// RoleCompany is a company owner.
	RoleCompany Role = "company"
	// RoleCollaborator is a company member (not owner).
	RoleCollaborator Role = "collaborator"
	// RoleStudent is the universal fallback.
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleProducer, RoleCompany, RoleCollaborator, RoleStudent:
		return true
	}

	return false
}

// CompanyUserData is the role-dependent auxiliary payload: the company or
// collaborator record behind a company/collaborator role. Nil for producers
// and students.
type CompanyUserData struct {
	CompanyID      string `json:"companyId"`
	CompanyName    string `json:"companyName"`
	CollaboratorID string `json:"collaboratorId,omitempty"`
	IsOwner        bool   `json:"isOwner"`
}

// Resolution is the outcome of the role resolution cascade.
type Resolution struct {
	Role                Role
	CompanyData         *CompanyUserData
	NeedsPasswordChange bool
}

// fallbackResolution is the safe degraded outcome used whenever the
// cascade hits an unexpected error: the UI must keep rendering.
func fallbackResolution() Resolution {
	return Resolution{Role: RoleStudent}
}

// ValidationResult is the contract between Validator/Refresher and their
// callers. RequiresCleanup flags token corruption that must route to the
// Cleaner rather than a retry.
type ValidationResult struct {
	IsValid         bool
	NeedsRefresh    bool
	RequiresCleanup bool
	Session         *provider.Session
	User            *provider.Identity
	Err             error
}
