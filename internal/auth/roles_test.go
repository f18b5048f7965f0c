package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alexandrevcalmon/authcore/internal/db/models"
	"github.com/alexandrevcalmon/authcore/internal/provider"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Producer{},
		&models.Company{},
		&models.CompanyUser{},
		&models.Profile{},
	))

	return db
}

func identity(id string) *provider.Identity {
	return &provider.Identity{ID: id, Email: id + "@example.com"}
}

func TestResolveActiveProducer(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Producer{
		ID: "p1", AuthUserID: "user-1", Email: "user-1@example.com", Status: models.ProducerStatusActive,
	}).Error)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity("user-1"))

	assert.Equal(t, RoleProducer, res.Role)
	assert.Nil(t, res.CompanyData)
	assert.False(t, res.NeedsPasswordChange, "producers never carry a forced password change")

	// the resolved role is written through to the profile store
	var profile models.Profile
	require.NoError(t, db.Where("id = ?", "user-1").First(&profile).Error)
	assert.Equal(t, "producer", profile.Role)
}

func TestResolveInactiveProducerFallsThrough(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Producer{
		ID: "p1", AuthUserID: "user-1", Email: "u@example.com", Status: models.ProducerStatusInactive,
	}).Error)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity("user-1"))

	assert.Equal(t, RoleStudent, res.Role)
}

func TestResolveProducerBeatsCompanyOwnership(t *testing.T) {
	db := newTestDB(t)
	userID := "user-1"
	require.NoError(t, db.Create(&models.Producer{
		ID: "p1", AuthUserID: userID, Email: "u@example.com", Status: models.ProducerStatusActive,
	}).Error)
	require.NoError(t, db.Create(&models.Company{
		ID: "c1", AuthUserID: &userID, Name: "Acme", ContactEmail: "acme@example.com",
	}).Error)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity(userID))

	assert.Equal(t, RoleProducer, res.Role)
}

func TestResolveCompanyOwner(t *testing.T) {
	db := newTestDB(t)
	userID := "user-1"
	require.NoError(t, db.Create(&models.Company{
		ID: "c1", AuthUserID: &userID, Name: "Acme", ContactEmail: "acme@example.com",
		NeedsPasswordChange: true,
	}).Error)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity(userID))

	assert.Equal(t, RoleCompany, res.Role)
	require.NotNil(t, res.CompanyData)
	assert.Equal(t, "c1", res.CompanyData.CompanyID)
	assert.Equal(t, "Acme", res.CompanyData.CompanyName)
	assert.True(t, res.CompanyData.IsOwner)
	assert.True(t, res.NeedsPasswordChange)
}

func TestResolveCompanyOwnerRepairsStaleDefault(t *testing.T) {
	db := newTestDB(t)
	userID := "user-1"
	require.NoError(t, db.Create(&models.Company{
		ID: "c1", AuthUserID: &userID, Name: "Acme", ContactEmail: "acme@example.com",
	}).Error)
	// a stale default row left behind by an earlier fallback resolution
	require.NoError(t, db.Create(&models.Profile{ID: userID, Role: "student"}).Error)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity(userID))

	assert.Equal(t, RoleCompany, res.Role)

	var profile models.Profile
	require.NoError(t, db.Where("id = ?", userID).First(&profile).Error)
	assert.Equal(t, "company", profile.Role, "stale default must be corrected in storage")
}

func TestResolveStoredRoleHonored(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Profile{ID: "user-1", Role: "producer"}).Error)

	r := NewRoleResolver(db, nil)

	// no producer record, but the stored non-default role wins over the
	// collaborator branch
	require.NoError(t, db.Create(&models.CompanyUser{
		ID: "m1", AuthUserID: "user-1", CompanyID: "c1",
	}).Error)

	res := r.Resolve(context.Background(), identity("user-1"))

	assert.Equal(t, RoleProducer, res.Role)
}

func TestResolveStoredDefaultNotHonored(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Profile{ID: "user-1", Role: "student"}).Error)
	require.NoError(t, db.Create(&models.Company{ID: "c1", Name: "Acme", ContactEmail: "a@example.com"}).Error)
	require.NoError(t, db.Create(&models.CompanyUser{
		ID: "m1", AuthUserID: "user-1", CompanyID: "c1",
	}).Error)

	r := NewRoleResolver(db, nil)

	// the stored default means "nothing better was known": the membership
	// lookup must still run
	res := r.Resolve(context.Background(), identity("user-1"))

	assert.Equal(t, RoleCollaborator, res.Role)
}

func TestResolveCollaborator(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Company{ID: "c1", Name: "Acme", ContactEmail: "a@example.com"}).Error)
	require.NoError(t, db.Create(&models.CompanyUser{
		ID: "m1", AuthUserID: "user-1", CompanyID: "c1", NeedsPasswordChange: true,
	}).Error)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity("user-1"))

	assert.Equal(t, RoleCollaborator, res.Role)
	require.NotNil(t, res.CompanyData)
	assert.Equal(t, "c1", res.CompanyData.CompanyID)
	assert.Equal(t, "Acme", res.CompanyData.CompanyName)
	assert.Equal(t, "m1", res.CompanyData.CollaboratorID)
	assert.False(t, res.CompanyData.IsOwner)
	assert.True(t, res.NeedsPasswordChange)
}

func TestResolveCollaboratorMissingCompanyNameUsesPlaceholder(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.CompanyUser{
		ID: "m1", AuthUserID: "user-1", CompanyID: "ghost",
	}).Error)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity("user-1"))

	assert.Equal(t, RoleCollaborator, res.Role)
	require.NotNil(t, res.CompanyData)
	assert.Equal(t, collaboratorCompanyPlaceholder, res.CompanyData.CompanyName)
}

func TestResolveStudentFallback(t *testing.T) {
	db := newTestDB(t)

	r := NewRoleResolver(db, nil)

	res := r.Resolve(context.Background(), identity("user-1"))

	assert.Equal(t, RoleStudent, res.Role)
	assert.Nil(t, res.CompanyData)
}

func TestResolveNilIdentityFallsBack(t *testing.T) {
	r := NewRoleResolver(newTestDB(t), nil)

	res := r.Resolve(context.Background(), nil)

	assert.Equal(t, RoleStudent, res.Role)
}

func TestIsActiveProducer(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Producer{
		ID: "p1", AuthUserID: "user-1", Email: "u@example.com", Status: models.ProducerStatusActive,
	}).Error)
	require.NoError(t, db.Create(&models.Producer{
		ID: "p2", AuthUserID: "user-2", Email: "v@example.com", Status: models.ProducerStatusInactive,
	}).Error)

	r := NewRoleResolver(db, nil)

	ok, err := r.IsActiveProducer(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsActiveProducer(context.Background(), "user-2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.IsActiveProducer(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}
