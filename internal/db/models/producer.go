package models

import "time"

// ProducerStatus represents the lifecycle state of a producer account.
type ProducerStatus string

const (
	// ProducerStatusActive marks a producer that may sign in through the
	// producer login path.
	ProducerStatusActive ProducerStatus = "active"
	// ProducerStatusInactive marks a suspended or retired producer.
	ProducerStatusInactive ProducerStatus = "inactive"
)

// Producer represents a content producer account. Producers are the highest
// priority branch of role resolution and never carry a forced password
// change.
type Producer struct {
	// ID is the unique identifier for the producer record.
	ID string `gorm:"type:varchar(36);primaryKey"`
	// AuthUserID is the identity provider user id this producer belongs to.
	AuthUserID string `gorm:"type:varchar(36);uniqueIndex;not null"`
	// Email is the producer's contact email.
	Email string `gorm:"size:255;not null"`
	// Name is the producer's display name.
	Name string `gorm:"size:255"`
	// Status indicates whether the producer is active.
	Status ProducerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	// CreatedAt is the timestamp when the record was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the record was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Producer model.
func (Producer) TableName() string {
	return "producers"
}
