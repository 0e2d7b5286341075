package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	resetTokenTTL     = time.Hour
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// TokenVerifier validates a Google ID token and extracts its claims.
// The production implementation calls Google's tokeninfo verification;
// tests substitute a fake.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (GoogleClaims, error)
}

// TokenStore persists single-use password reset tokens with a TTL.
type TokenStore interface {
	Save(ctx context.Context, token, uid string, ttl time.Duration) error
	// Consume returns the uid a token was issued for and invalidates it.
	Consume(ctx context.Context, token string) (string, error)
}

// Mailer dispatches transactional mail.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service implements the identity gateway: credential and federated
// sign-in, registration, profile updates and password resets.
type Service struct {
	repo     Repository
	verifier TokenVerifier
	tokens   TokenStore
	mailer   Mailer
	baseURL  string

	idGenerator func() string
	now         func() time.Time
}

// NewService creates the identity gateway service.
func NewService(repo Repository, verifier TokenVerifier, tokens TokenStore, mailer Mailer, baseURL string) *Service {
	return &Service{
		repo:        repo,
		verifier:    verifier,
		tokens:      tokens,
		mailer:      mailer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a password-provider identity with the given display name.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return Identity{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return Identity{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: hash password: %w", err)
	}

	return s.repo.Create(ctx, CreateParams{
		UID:          s.idGenerator(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Provider:     ProviderPassword,
		PasswordHash: string(hash),
	})
}

// SignInWithPassword authenticates an email/password pair.
// ErrNotFound is preserved so callers can distinguish a missing account
// from a wrong password when they choose to.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (Identity, error) {
	id, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return Identity{}, err
	}

	if id.PasswordHash == "" {
		// Federated-only account; no password to compare.
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	return id, nil
}

// SignInWithGoogle verifies a Google ID token and finds or creates the
// matching identity.
func (s *Service) SignInWithGoogle(ctx context.Context, rawToken string) (Identity, error) {
	claims, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		if IsUnavailable(err) {
			return Identity{}, classify(err)
		}
		return Identity{}, errors.Join(ErrInvalidGoogleToken, err)
	}
	if claims.Email == "" {
		return Identity{}, ErrInvalidGoogleToken
	}

	id, err := s.repo.GetByEmail(ctx, claims.Email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Identity{}, err
	}

	return s.repo.Create(ctx, CreateParams{
		UID:         s.idGenerator(),
		Email:       claims.Email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
		Provider:    ProviderGoogle,
	})
}

// GetByUID retrieves the identity for a uid.
func (s *Service) GetByUID(ctx context.Context, uid string) (Identity, error) {
	return s.repo.GetByUID(ctx, uid)
}

// UpdateProfile rewrites display name and photo URL.
func (s *Service) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) (Identity, error) {
	return s.repo.UpdateProfile(ctx, uid, strings.TrimSpace(displayName), strings.TrimSpace(photoURL))
}

// SendPasswordReset issues a single-use reset token for the account and
// mails a reset link. ErrNotFound surfaces when no account matches.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	id, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}

	token := s.idGenerator()
	if err := s.tokens.Save(ctx, token, id.UID, resetTokenTTL); err != nil {
		return classify(fmt.Errorf("identity: save reset token: %w", err))
	}

	link := fmt.Sprintf("%s/login?view=reset&token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>Olá%s,</p><p>Para redefinir sua senha, acesse o link abaixo. Ele expira em 1 hora.</p><p><a href=%q>%s</a></p>",
		displayNameGreeting(id), link, link,
	)
	if err := s.mailer.Send(id.Email, "Redefinição de senha - Alfa Nerf", body); err != nil {
		return classify(fmt.Errorf("identity: send reset mail: %w", err))
	}

	return nil
}

// ResetPassword consumes a reset token and rewrites the account password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	uid, err := s.tokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			return err
		}
		return classify(fmt.Errorf("identity: consume reset token: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("identity: hash password: %w", err)
	}

	return s.repo.UpdatePasswordHash(ctx, uid, string(hash))
}

func displayNameGreeting(id Identity) string {
	if id.DisplayName == "" {
		return ""
	}
	return " " + id.DisplayName
}
