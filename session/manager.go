package session

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/identity"
)

// Scope limits what a token authorizes.
type Scope string

const (
	// ScopeMain is a fully signed-in session.
	ScopeMain Scope = "main"
	// ScopeOnboarding holds a pending federated identity that still has
	// no profile. It cannot reach private routes.
	ScopeOnboarding Scope = "onboarding"
)

// Cookie names. The pending cookie is always session-scoped: abandoning
// onboarding is just dropping it.
const (
	SessionCookie    = "nerf_session"
	OnboardingCookie = "nerf_pending"
)

const (
	durableTTL    = 30 * 24 * time.Hour
	sessionTTL    = 24 * time.Hour
	onboardingTTL = 15 * time.Minute
)

var (
	// ErrNoSession signals an absent or expired session cookie.
	ErrNoSession = errors.New("session: not authenticated")
	// ErrWrongScope signals a token used outside its scope.
	ErrWrongScope = errors.New("session: wrong token scope")
)

// Claims is the decoded content of a session token.
type Claims struct {
	UID      string
	Email    string
	Scope    Scope
	Remember bool
}

// EventType distinguishes the auth-state stream emissions.
type EventType int

const (
	SignedIn EventType = iota
	SignedOut
)

// Event is one emission of the auth-state stream.
type Event struct {
	Type EventType
	UID  string
}

// Manager issues and verifies JWT cookie sessions and emits auth-state
// events to subscribers.
type Manager struct {
	secret []byte
	secure bool
	now    func() time.Time

	mu          sync.Mutex
	subscribers []func(Event)
}

// NewManager creates a session manager signing with the given secret.
// Set secure for deployments served over HTTPS.
func NewManager(secret string, secure bool) *Manager {
	return &Manager{
		secret: []byte(secret),
		secure: secure,
		now:    time.Now,
	}
}

func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Subscribe registers a listener on the auth-state stream. Subscriptions
// are expected to be long-lived; there is no unsubscribe.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) notify(ev Event) {
	m.mu.Lock()
	subs := make([]func(Event), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Issue signs a full session for the identity and sets the cookie.
// The persistence mode follows remember: a durable cookie with a 30 day
// expiry, or a browser-session cookie expiring in 24h.
func (m *Manager) Issue(w http.ResponseWriter, id identity.Identity, remember bool) error {
	ttl := sessionTTL
	if remember {
		ttl = durableTTL
	}

	token, err := m.sign(id.UID, id.Email, ScopeMain, remember, ttl)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(durableTTL / time.Second)
	}
	http.SetCookie(w, cookie)

	m.notify(Event{Type: SignedIn, UID: id.UID})
	return nil
}

// IssueOnboarding signs a short-lived pending token for a federated
// identity that still lacks a profile. No sign-in event is emitted; the
// user is not signed in yet.
func (m *Manager) IssueOnboarding(w http.ResponseWriter, id identity.Identity) error {
	token, err := m.sign(id.UID, id.Email, ScopeOnboarding, false, onboardingTTL)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     OnboardingCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear tears both cookies down and emits a sign-out event for the
// session's uid when one was present.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) {
	claims, err := m.Verify(r)

	for _, name := range []string{SessionCookie, OnboardingCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if err == nil {
		m.notify(Event{Type: SignedOut, UID: claims.UID})
	}
}

// Verify parses the main session cookie.
func (m *Manager) Verify(r *http.Request) (Claims, error) {
	return m.verifyCookie(r, SessionCookie, ScopeMain)
}

// VerifyOnboarding parses the pending onboarding cookie.
func (m *Manager) VerifyOnboarding(r *http.Request) (Claims, error) {
	return m.verifyCookie(r, OnboardingCookie, ScopeOnboarding)
}

func (m *Manager) verifyCookie(r *http.Request, name string, want Scope) (Claims, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return Claims{}, ErrNoSession
	}
	return m.parse(cookie.Value, want)
}

func (m *Manager) sign(uid, email string, scope Scope, remember bool, ttl time.Duration) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"uid":      uid,
		"email":    email,
		"scope":    string(scope),
		"remember": remember,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return token, nil
}

func (m *Manager) parse(raw string, want Scope) (Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		return Claims{}, ErrNoSession
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrNoSession
	}

	uid, _ := mapClaims["uid"].(string)
	email, _ := mapClaims["email"].(string)
	scope, _ := mapClaims["scope"].(string)
	remember, _ := mapClaims["remember"].(bool)
	if uid == "" {
		return Claims{}, ErrNoSession
	}
	if Scope(scope) != want {
		return Claims{}, ErrWrongScope
	}

	return Claims{UID: uid, Email: email, Scope: Scope(scope), Remember: remember}, nil
}
