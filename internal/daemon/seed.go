package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/alexandrevcalmon/authcore/internal/db/models"
)

// seed fills an empty dev database with one record per role branch, so
// every path of the resolution cascade can be exercised locally.
func seed(db *gorm.DB) {
	var count int64

	db.Model(&models.Producer{}).Count(&count)
	if count > 0 {
		return
	}

	log.Info().Msg("dev mode: seeding sample role data")

	db.Create(&models.Producer{
		ID:         "seed-producer",
		AuthUserID: "00000000-0000-0000-0000-000000000001",
		Email:      "producer@example.dev",
		Name:       "Dev Producer",
		Status:     models.ProducerStatusActive,
	})

	// unlinked company: exercises the account-linking path on first login
	db.Create(&models.Company{
		ID:           "seed-company",
		Name:         "Dev Company",
		ContactEmail: "owner@example.dev",
	})

	db.Create(&models.CompanyUser{
		ID:                  "seed-collaborator",
		AuthUserID:          "00000000-0000-0000-0000-000000000002",
		CompanyID:           "seed-company",
		Email:               "collaborator@example.dev",
		Name:                "Dev Collaborator",
		NeedsPasswordChange: true,
	})
}
