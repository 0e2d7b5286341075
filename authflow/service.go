package authflow

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/identity"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/profile"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
	minPhoneDigits    = 10
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Gateway is the identity-provider surface the orchestrator drives.
// identity.Service implements it; tests substitute recording fakes.
type Gateway interface {
	Register(ctx context.Context, email, password, displayName string) (identity.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (identity.Identity, error)
	SignInWithGoogle(ctx context.Context, rawToken string) (identity.Identity, error)
	UpdateProfile(ctx context.Context, uid, displayName, photoURL string) (identity.Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Service orchestrates sign-in, registration, Google sign-in, onboarding
// completion and password resets. Every failure leaves through a
// *FlowError with the message for the form inline area; nothing else
// escapes this boundary.
type Service struct {
	gateway Gateway
	store   profile.Store
	now     func() time.Time
}

// NewService creates the auth orchestrator.
func NewService(gateway Gateway, store profile.Store) *Service {
	return &Service{
		gateway: gateway,
		store:   store,
		now:     time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SignInParams carries the login form.
type SignInParams struct {
	Identifier string
	Password   string
	Remember   bool
}

// SignInResult is a successful login. Remember carries the persistence
// mode fixed before authentication; the handler applies it to the session
// cookie.
type SignInResult struct {
	Identity identity.Identity
	Remember bool
	Redirect string
}

// SignIn authenticates an identifier/password pair. An identifier without
// an @ is treated as a username and resolved through the profile store
// first; when resolution finds nothing the identity gateway is never
// contacted.
func (s *Service) SignIn(ctx context.Context, p SignInParams) (SignInResult, error) {
	identifier := strings.TrimSpace(p.Identifier)
	if identifier == "" || p.Password == "" {
		return SignInResult{}, flowErr(CodeValidation, msgFillAllFields)
	}

	// Persistence mode is decided here, before any authentication happens.
	remember := p.Remember

	email := identifier
	if !strings.Contains(identifier, "@") {
		resolved, err := s.resolveEmail(ctx, identifier)
		if err != nil {
			return SignInResult{}, err
		}
		email = resolved
	}

	id, err := s.gateway.SignInWithPassword(ctx, email, p.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			return SignInResult{}, flowErr(CodeInvalidCredentials, msgWrongCredentials)
		case errors.Is(err, identity.ErrNotFound):
			return SignInResult{}, flowErr(CodeUserNotFound, msgAccountNotFound)
		default:
			return SignInResult{}, flowErr(CodeUnknown, msgLoginGeneric)
		}
	}

	return SignInResult{Identity: id, Remember: remember, Redirect: "/"}, nil
}

// resolveEmail maps a username to the email of its profile document.
// A connectivity failure gets its own message: from the user's side it is
// otherwise indistinguishable from a wrong password, and ad blockers
// breaking the lookup are a recurring support case.
func (s *Service) resolveEmail(ctx context.Context, username string) (string, error) {
	rec, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if identity.IsUnavailable(err) {
			return "", flowErr(CodeConnectivity, msgResolveConnectivity)
		}
		return "", flowErr(CodeUserNotFound, msgUserNotFound)
	}
	if strings.TrimSpace(rec.Email) == "" {
		return "", flowErr(CodeUserNotFound, msgUserNotFound)
	}
	return rec.Email, nil
}

// RegisterParams carries the registration form.
type RegisterParams struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	DOB             string
	ReferralCode    string
}

// RegisterResult is a successful registration.
type RegisterResult struct {
	Identity identity.Identity
	Redirect string
}

// Register validates the form, creates the identity with the username as
// display name, then writes the profile record. When the identity exists
// but the record write fails, the account is left in place and the error
// tells the user to log in instead (login routes through onboarding).
func (s *Service) Register(ctx context.Context, p RegisterParams) (RegisterResult, error) {
	if err := validateRegistration(p); err != nil {
		return RegisterResult{}, err
	}

	id, err := s.gateway.Register(ctx, p.Email, p.Password, p.Username)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailInUse):
			return RegisterResult{}, flowErr(CodeEmailInUse, msgEmailInUse)
		case errors.Is(err, identity.ErrWeakPassword):
			return RegisterResult{}, flowErr(CodeWeakPassword, msgWeakPassword)
		case errors.Is(err, identity.ErrInvalidEmail):
			return RegisterResult{}, flowErr(CodeInvalidEmail, msgMalformedEmail)
		default:
			return RegisterResult{}, flowErr(CodeUnknown, msgRegisterGeneric)
		}
	}

	if err := s.saveProfile(ctx, id.UID, profile.Record{
		Username:     p.Username,
		Email:        p.Email,
		Phone:        profile.FormatPhone(p.Phone),
		DOB:          p.DOB,
		ReferralCode: p.ReferralCode,
	}); err != nil {
		// No rollback of the created identity; logging in routes the
		// user through onboarding to finish the profile.
		return RegisterResult{}, flowErr(CodePartialRegistration, msgPartialRegistration)
	}

	return RegisterResult{Identity: id, Redirect: "/"}, nil
}

func validateRegistration(p RegisterParams) *FlowError {
	if anyBlank(p.Username, p.Email, p.Password, p.Phone, p.DOB) {
		return flowErr(CodeValidation, msgFillRequiredFields)
	}
	// Checked before any network call.
	if p.Password != p.ConfirmPassword {
		return flowErr(CodeValidation, msgPasswordsDontMatch)
	}
	if len(strings.TrimSpace(p.Username)) < minUsernameLength {
		return flowErr(CodeValidation, msgUsernameTooShort)
	}
	if !emailPattern.MatchString(strings.TrimSpace(p.Email)) {
		return flowErr(CodeValidation, msgInvalidEmailFormat)
	}
	if len(p.Password) < minPasswordLength {
		return flowErr(CodeValidation, msgPasswordTooShort)
	}
	if profile.PhoneDigits(p.Phone) < minPhoneDigits {
		return flowErr(CodeValidation, msgInvalidPhone)
	}
	return nil
}

// GoogleResult is the outcome of a Google sign-in attempt.
type GoogleResult struct {
	// Cancelled is the distinct non-error outcome of a closed popup.
	Cancelled bool
	Message   string
	Identity  identity.Identity
	// View is onboarding when the identity has no profile yet.
	View     View
	Redirect string
}

// GoogleSignIn verifies the ID token, then checks whether a profile
// document already exists for the identity. Without one the result points
// at the onboarding view and the identity is retained as pending by the
// caller.
func (s *Service) GoogleSignIn(ctx context.Context, rawToken string) (GoogleResult, error) {
	if strings.TrimSpace(rawToken) == "" {
		// The popup was closed before completing; not a failure.
		return GoogleResult{Cancelled: true, Message: msgLoginCancelled, View: ViewLogin}, nil
	}

	id, err := s.gateway.SignInWithGoogle(ctx, rawToken)
	if err != nil {
		return GoogleResult{}, flowErr(CodeConnectivity, msgGoogleGeneric)
	}

	_, err = s.store.Get(ctx, id.UID)
	switch {
	case err == nil:
		return GoogleResult{Identity: id, Redirect: "/"}, nil
	case errors.Is(err, profile.ErrNotFound):
		return GoogleResult{Identity: id, View: ViewOnboarding}, nil
	case identity.IsUnavailable(err):
		return GoogleResult{}, flowErr(CodeConnectivity, msgProfileConnectivity)
	default:
		return GoogleResult{}, flowErr(CodeUnknown, msgGoogleGeneric)
	}
}

// OnboardingParams carries the profile-completion form.
type OnboardingParams struct {
	Username     string
	Phone        string
	DOB          string
	ReferralCode string
}

// OnboardingResult is a completed onboarding.
type OnboardingResult struct {
	Redirect string
}

// CompleteOnboarding writes the profile record for a pending federated
// identity, using the identity's email.
func (s *Service) CompleteOnboarding(ctx context.Context, pending identity.Identity, p OnboardingParams) (OnboardingResult, error) {
	if pending.UID == "" {
		return OnboardingResult{}, flowErr(CodeExpired, msgOnboardingExpired)
	}
	if anyBlank(p.Username, p.Phone, p.DOB) {
		return OnboardingResult{}, flowErr(CodeValidation, msgFillRequiredFields)
	}
	if len(strings.TrimSpace(p.Username)) < minUsernameLength {
		return OnboardingResult{}, flowErr(CodeValidation, msgUsernameTooShort)
	}
	if profile.PhoneDigits(p.Phone) < minPhoneDigits {
		return OnboardingResult{}, flowErr(CodeValidation, msgInvalidPhone)
	}

	if err := s.saveProfile(ctx, pending.UID, profile.Record{
		Username:     p.Username,
		Email:        pending.Email,
		Phone:        profile.FormatPhone(p.Phone),
		DOB:          p.DOB,
		ReferralCode: p.ReferralCode,
	}); err != nil {
		var fe *FlowError
		if errors.As(err, &fe) {
			return OnboardingResult{}, fe
		}
		return OnboardingResult{}, flowErr(CodeUnknown, msgOnboardingSaveGeneric)
	}

	return OnboardingResult{Redirect: "/"}, nil
}

// saveProfile writes the record with the default role and creation time.
func (s *Service) saveProfile(ctx context.Context, uid string, rec profile.Record) error {
	rec.Role = profile.RoleUser
	rec.CreatedAt = s.now()
	if err := s.store.SetMerge(ctx, uid, rec); err != nil {
		if identity.IsUnavailable(err) {
			return flowErr(CodeConnectivity, msgProfileConnectivity)
		}
		return err
	}
	return nil
}

// ForgotPassword dispatches the reset email. The returned message is the
// persistent confirmation the form keeps showing; suppressing repeated
// submissions is the control's job (it disables itself), the operation is
// an idempotent dispatch.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", flowErr(CodeValidation, msgForgotMissingEmail)
	}

	if err := s.gateway.SendPasswordReset(ctx, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return "", flowErr(CodeUserNotFound, msgForgotNotFound)
		}
		return "", flowErr(CodeUnknown, msgForgotGeneric)
	}

	return msgForgotSent, nil
}

// ResetPassword completes a reset with the mailed token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if strings.TrimSpace(token) == "" || newPassword == "" {
		return "", flowErr(CodeValidation, msgFillAllFields)
	}

	if err := s.gateway.ResetPassword(ctx, token, newPassword); err != nil {
		switch {
		case errors.Is(err, identity.ErrResetTokenInvalid):
			return "", flowErr(CodeExpired, msgResetInvalidToken)
		case errors.Is(err, identity.ErrWeakPassword):
			return "", flowErr(CodeWeakPassword, msgPasswordTooShort)
		default:
			return "", flowErr(CodeUnknown, msgForgotGeneric)
		}
	}

	return msgResetDone, nil
}

// UpdateProfileParams carries the dashboard profile form.
type UpdateProfileParams struct {
	DisplayName string
	PhotoURL    string
	Phone       string
	DOB         string
}

// UpdateProfile persists the display name and avatar on the identity and,
// when supplied, phone and date of birth on the profile record.
func (s *Service) UpdateProfile(ctx context.Context, uid string, p UpdateProfileParams) (identity.Identity, string, error) {
	if p.Phone != "" && profile.PhoneDigits(p.Phone) < minPhoneDigits {
		return identity.Identity{}, "", flowErr(CodeValidation, msgInvalidPhone)
	}

	id, err := s.gateway.UpdateProfile(ctx, uid, p.DisplayName, p.PhotoURL)
	if err != nil {
		return identity.Identity{}, "", flowErr(CodeUnknown, msgProfileUpdateFailed)
	}

	if p.Phone != "" || p.DOB != "" {
		err := s.store.SetMerge(ctx, uid, profile.Record{
			Phone: profile.FormatPhone(p.Phone),
			DOB:   p.DOB,
		})
		if err != nil {
			return identity.Identity{}, "", flowErr(CodeUnknown, msgProfileUpdateFailed)
		}
	}

	return id, msgProfileUpdated, nil
}

func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
