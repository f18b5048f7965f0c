package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alexandrevcalmon/authcore/internal/cache"
	"github.com/alexandrevcalmon/authcore/internal/db/models"
	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// collaboratorCompanyPlaceholder is shown when a collaborator's employing
// company record is missing its display name.
const collaboratorCompanyPlaceholder = "Empresa"

// RoleResolver runs the role resolution cascade. Branches are evaluated in
// strict priority order and the first match wins:
//
//  1. active producer
//  2. company owner
//  3. explicitly stored profile role (unless it is the bare default)
//  4. company member (collaborator)
//  5. student fallback
//
// Writes to the profile store and the role cache are best-effort
// consistency: failures are logged and never abort resolution. Unexpected
// errors anywhere degrade to the student fallback instead of propagating,
// so role resolution can never block the application from rendering.
type RoleResolver struct {
	db      *gorm.DB
	cache   *cache.RoleCache
	metrics *metrics
}

// NewRoleResolver creates a resolver over the relational store.
func NewRoleResolver(db *gorm.DB, rc *cache.RoleCache) *RoleResolver {
	return &RoleResolver{db: db, cache: rc, metrics: newMetrics()}
}

// Resolve determines the authoritative role and auxiliary data for an
// identity.
func (r *RoleResolver) Resolve(ctx context.Context, identity *provider.Identity) Resolution {
	if identity == nil || identity.ID == "" {
		return fallbackResolution()
	}

	res, err := r.resolve(ctx, identity)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.ID).
			Msg("role resolution failed, falling back to student")

		res = fallbackResolution()
	}

	r.metrics.resolutions.WithLabelValues(string(res.Role)).Inc()

	return res
}

func (r *RoleResolver) resolve(ctx context.Context, identity *provider.Identity) (Resolution, error) {
	db := r.db.WithContext(ctx)

	// 1. active producer. Producers never carry a forced password change.
	var producer models.Producer

	err := db.Where("auth_user_id = ? AND status = ?", identity.ID, models.ProducerStatusActive).
		First(&producer).Error
	if err == nil {
		r.persistRole(ctx, identity.ID, RoleProducer)

		return Resolution{Role: RoleProducer}, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, err
	}

	// 2. company owner
	var company models.Company

	err = db.Where("auth_user_id = ?", identity.ID).First(&company).Error
	if err == nil {
		// repair a stale stored default so storage converges on the
		// derivation order
		r.repairStaleDefault(ctx, identity.ID)

		return Resolution{
			Role: RoleCompany,
			CompanyData: &CompanyUserData{
				CompanyID:   company.ID,
				CompanyName: company.Name,
				IsOwner:     true,
			},
			NeedsPasswordChange: company.NeedsPasswordChange,
		}, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, err
	}

	// 3. explicitly stored profile role. The bare default is not honored:
	// it only records that nothing better was known last time.
	var profile models.Profile

	err = db.Where("id = ?", identity.ID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, err
	}

	if err == nil {
		stored := Role(profile.Role)
		if stored.Valid() && stored != RoleStudent {
			return r.resolveStored(ctx, identity, stored)
		}
	}

	// 4. company member (collaborator)
	var member models.CompanyUser

	err = db.Where("auth_user_id = ?", identity.ID).First(&member).Error
	if err == nil {
		return r.resolveCollaborator(ctx, identity, &member)
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, err
	}

	// 5. fallback
	return Resolution{Role: RoleStudent}, nil
}

// resolveStored fills in auxiliary data for a role remembered by the
// profile store.
func (r *RoleResolver) resolveStored(ctx context.Context, identity *provider.Identity, stored Role) (Resolution, error) {
	db := r.db.WithContext(ctx)

	switch stored {
	case RoleCollaborator:
		var member models.CompanyUser
		if err := db.Where("auth_user_id = ?", identity.ID).First(&member).Error; err == nil {
			return r.resolveCollaborator(ctx, identity, &member)
		}

		// membership record gone: the stored role is honored anyway
		return Resolution{Role: RoleCollaborator}, nil
	case RoleCompany:
		var company models.Company
		if err := db.Where("auth_user_id = ?", identity.ID).First(&company).Error; err == nil {
			return Resolution{
				Role: RoleCompany,
				CompanyData: &CompanyUserData{
					CompanyID:   company.ID,
					CompanyName: company.Name,
					IsOwner:     true,
				},
				NeedsPasswordChange: company.NeedsPasswordChange,
			}, nil
		}

		return Resolution{Role: RoleCompany}, nil
	default:
		return Resolution{Role: stored}, nil
	}
}

// resolveCollaborator joins the employer's display name in a second lookup
// (deliberately not a relational join) and writes the collaborator role
// through to the profile store.
func (r *RoleResolver) resolveCollaborator(ctx context.Context, identity *provider.Identity, member *models.CompanyUser) (Resolution, error) {
	companyName := collaboratorCompanyPlaceholder

	var company models.Company
	if err := r.db.WithContext(ctx).Where("id = ?", member.CompanyID).First(&company).Error; err == nil {
		if company.Name != "" {
			companyName = company.Name
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Str("company_id", member.CompanyID).
			Msg("failed to look up employing company name")
	}

	r.persistRole(ctx, identity.ID, RoleCollaborator)

	return Resolution{
		Role: RoleCollaborator,
		CompanyData: &CompanyUserData{
			CompanyID:      member.CompanyID,
			CompanyName:    companyName,
			CollaboratorID: member.ID,
			IsOwner:        false,
		},
		NeedsPasswordChange: member.NeedsPasswordChange,
	}, nil
}

// IsActiveProducer checks the producer registry directly. Used by the
// producer login gate.
func (r *RoleResolver) IsActiveProducer(ctx context.Context, userID string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).Model(&models.Producer{}).
		Where("auth_user_id = ? AND status = ?", userID, models.ProducerStatusActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// persistRole writes the resolved role to the profile store and the cache.
// Best-effort on both sides.
func (r *RoleResolver) persistRole(ctx context.Context, userID string, role Role) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&models.Profile{ID: userID, Role: string(role)}).Error
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("role", string(role)).
			Msg("failed to write role through to profile store")
	}

	if err := r.cache.SetRole(ctx, userID, string(role)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to cache resolved role")
	}
}

// repairStaleDefault upgrades a stored bare-default profile role to
// company when ownership is established. See the stale-data correction
// rule: the default row only means nothing better was known at the time.
func (r *RoleResolver) repairStaleDefault(ctx context.Context, userID string) {
	var profile models.Profile

	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.persistRole(ctx, userID, RoleCompany)
		return
	}

	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to read profile for stale-default check")
		return
	}

	if Role(profile.Role) == RoleStudent || profile.Role == "" {
		r.persistRole(ctx, userID, RoleCompany)
	}
}
