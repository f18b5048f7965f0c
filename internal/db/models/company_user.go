package models

import "time"

// CompanyUser represents a collaborator: an identity linked to a company as
// a member, distinct from ownership. Collaborators resolve after producers,
// owners and explicitly stored profiles.
type CompanyUser struct {
	// ID is the unique identifier for the membership record.
	ID string `gorm:"type:varchar(36);primaryKey"`
	// AuthUserID is the identity provider user id of the member.
	AuthUserID string `gorm:"type:varchar(36);index;not null"`
	// CompanyID is the employing company.
	CompanyID string `gorm:"type:varchar(36);index;not null"`
	// Email is the collaborator's email.
	Email string `gorm:"size:255"`
	// Name is the collaborator's display name.
	Name string `gorm:"size:255"`
	// NeedsPasswordChange forces a password change on first login for
	// operator-provisioned collaborator accounts.
	NeedsPasswordChange bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the record was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the record was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the CompanyUser model.
func (CompanyUser) TableName() string {
	return "company_users"
}
