package models

import "time"

// Company represents a company account. A company is owned by exactly one
// identity; ownership is the second-highest branch of role resolution.
// Companies provisioned by an operator can exist before their owner has an
// identity at all, in which case AuthUserID is nil until account linking
// runs during the first company sign-in.
type Company struct {
	// ID is the unique identifier for the company record.
	ID string `gorm:"type:varchar(36);primaryKey"`
	// AuthUserID is the identity provider user id of the owner, nil while
	// the company has no linked identity yet.
	AuthUserID *string `gorm:"type:varchar(36);index"`
	// Name is the company's display name.
	Name string `gorm:"size:255;not null"`
	// ContactEmail is the address account linking matches against.
	ContactEmail string `gorm:"size:255;index;not null"`
	// NeedsPasswordChange forces a password change on first login for
	// operator-provisioned accounts.
	NeedsPasswordChange bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the record was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the record was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Company model.
func (Company) TableName() string {
	return "companies"
}
