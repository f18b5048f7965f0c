package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/alexandrevcalmon/authcore/internal/db/models"
	"github.com/alexandrevcalmon/authcore/internal/provider"
)

// SignIn authenticates an email/password pair. The roleHint selects the
// portal the user signed in through and gates extra behavior:
//
//   - "producer": the identity must be an active producer; anything else is
//     torn down and rejected.
//   - "company": failed credentials against a provisioned-but-unlinked
//     company account trigger account linking, which creates the identity
//     and retries the sign-in once.
//   - anything else: a plain sign-in.
//
// On success the provider emits SignedIn and the state handler takes over;
// the returned snapshot is taken after the role cascade settles.
func (e *Engine) SignIn(ctx context.Context, email, password string, roleHint Role) (Snapshot, error) {
	if email == "" || password == "" {
		return e.handler.State(), ErrMissingCredentials
	}

	e.handler.BeginAuthenticating()

	session, err := e.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		if roleHint == RoleCompany && provider.CodeOf(err) == provider.CodeInvalidCredentials {
			session, err = e.linkCompanyAccount(ctx, email, password)
		}

		if err != nil {
			e.handler.EndAuthenticating()

			if provider.CodeOf(err) == provider.CodeInvalidCredentials {
				return e.handler.State(), ErrInvalidCredentials
			}

			return e.handler.State(), err
		}
	}

	if roleHint == RoleProducer {
		if err := e.enforceProducerGate(ctx, session); err != nil {
			return e.handler.State(), err
		}
	}

	e.handler.WaitSettled()

	return e.handler.State(), nil
}

// enforceProducerGate rejects producer-portal sign-ins by identities that
// are not active producers. Rejection is a full teardown: the session that
// was just created must not survive.
func (e *Engine) enforceProducerGate(ctx context.Context, session *provider.Session) error {
	if session == nil || session.User.ID == "" {
		return ErrProducerAccessDenied
	}

	ok, err := e.resolver.IsActiveProducer(ctx, session.User.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", session.User.ID).
			Msg("producer gate check failed, denying access")
	}

	if err != nil || !ok {
		//nolint:errcheck // SignOut never returns a non-nil error
		e.SignOut(ctx)

		return ErrProducerAccessDenied
	}

	return nil
}

// linkCompanyAccount handles first sign-in of an operator-provisioned
// company: the company row exists, the identity does not. When the email
// matches an unlinked company's contact address, the identity is created
// with the supplied password, linked to the company, and the sign-in is
// retried once.
func (e *Engine) linkCompanyAccount(ctx context.Context, email, password string) (*provider.Session, error) {
	var company models.Company

	err := e.db.WithContext(ctx).
		Where("contact_email = ? AND auth_user_id IS NULL", email).
		First(&company).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Msg("company lookup for account linking failed")
		}

		// not a linking case: surface the original credential failure
		return nil, &provider.Error{Code: provider.CodeInvalidCredentials, Message: "invalid login credentials"}
	}

	log.Info().Str("company_id", company.ID).Msg("linking company account to new identity")

	identity, err := e.provider.AdminCreateUser(ctx, email, password, map[string]interface{}{
		"role": string(RoleCompany),
	})
	if err != nil {
		log.Error().Err(err).Str("company_id", company.ID).Msg("account linking identity creation failed")

		return nil, err
	}

	err = e.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", company.ID).
		Update("auth_user_id", identity.ID).Error
	if err != nil {
		log.Error().Err(err).Str("company_id", company.ID).Msg("account linking company update failed")

		return nil, err
	}

	// one retry with the just-created identity, no further recursion
	return e.provider.SignInWithPassword(ctx, email, password)
}

// SignUp registers a new identity. The metadata role hint seeds the role
// used until the first cascade run persists an authoritative one.
func (e *Engine) SignUp(ctx context.Context, email, password string, roleHint Role) (Snapshot, error) {
	if email == "" || password == "" {
		return e.handler.State(), ErrMissingCredentials
	}

	metadata := map[string]interface{}{}
	if roleHint.Valid() {
		metadata["role"] = string(roleHint)
	}

	e.handler.BeginAuthenticating()

	_, err := e.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		e.handler.EndAuthenticating()

		return e.handler.State(), err
	}

	e.handler.WaitSettled()

	return e.handler.State(), nil
}

// ChangePassword sets a new password for the current user and completes
// the forced-password-change flow: the database flags are cleared and the
// role resolution that was deferred behind the change is installed.
func (e *Engine) ChangePassword(ctx context.Context, newPassword string) error {
	if newPassword == "" {
		return ErrMissingCredentials
	}

	state := e.handler.State()
	if state.User == nil {
		return ErrNotAuthenticated
	}

	if _, err := e.provider.UpdateUser(ctx, provider.UserAttributes{Password: newPassword}); err != nil {
		return err
	}

	e.clearPasswordChangeFlags(ctx, state.User.ID)
	e.handler.CompletePasswordChange()

	// re-resolve so auxiliary data reflects the now-unblocked account
	res := e.resolver.Resolve(ctx, state.User)
	e.handler.ApplyResolution(res)

	return nil
}

// clearPasswordChangeFlags drops the forced-change markers on whichever
// records carry them. Best-effort: a failed flag write must not undo a
// password change that already happened provider-side.
func (e *Engine) clearPasswordChangeFlags(ctx context.Context, userID string) {
	db := e.db.WithContext(ctx)

	err := db.Model(&models.Company{}).
		Where("auth_user_id = ?", userID).
		Update("needs_password_change", false).Error
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to clear company password change flag")
	}

	err = db.Model(&models.CompanyUser{}).
		Where("auth_user_id = ?", userID).
		Update("needs_password_change", false).Error
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to clear collaborator password change flag")
	}
}
