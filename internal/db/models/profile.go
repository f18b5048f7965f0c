package models

import "time"

// Profile is the secondary role store: it remembers prior role resolutions
// per identity so later sessions start from a known value. The resolution
// cascade remains the source of truth; profile writes are best-effort
// consistency, never authority.
type Profile struct {
	// ID is the identity provider user id (primary key, one row per identity).
	ID string `gorm:"type:varchar(36);primaryKey"`
	// Role is the last resolved application role.
	Role string `gorm:"type:varchar(20);not null;default:'student'"`
	// Name is an optional display name snapshot.
	Name string `gorm:"size:255"`
	// CreatedAt is the timestamp when the record was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the record was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}
