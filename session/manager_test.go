package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/identity"
)

func testIdentity() identity.Identity {
	return identity.Identity{UID: "uid-1", Email: "alice@example.com"}
}

func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestManager_IssueVerifyRoundtrip(t *testing.T) {
	m := NewManager("test-secret", false)
	rec := httptest.NewRecorder()

	if err := m.Issue(rec, testIdentity(), false); err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(requestWithCookies(rec))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UID != "uid-1" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Scope != ScopeMain {
		t.Fatalf("expected main scope, got %s", claims.Scope)
	}
	if claims.Remember {
		t.Fatal("remember should be false")
	}
}

func TestManager_PersistenceMode(t *testing.T) {
	m := NewManager("test-secret", false)

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, testIdentity(), true); err != nil {
		t.Fatalf("issue remembered: %v", err)
	}
	cookie := findCookie(t, rec, SessionCookie)
	if cookie.MaxAge <= 0 {
		t.Fatalf("remembered session must set a durable MaxAge, got %d", cookie.MaxAge)
	}

	rec = httptest.NewRecorder()
	if err := m.Issue(rec, testIdentity(), false); err != nil {
		t.Fatalf("issue session-scoped: %v", err)
	}
	cookie = findCookie(t, rec, SessionCookie)
	if cookie.MaxAge != 0 {
		t.Fatalf("session-scoped cookie must not set MaxAge, got %d", cookie.MaxAge)
	}
}

func TestManager_SessionExpiry(t *testing.T) {
	now := time.Now()
	m := NewManager("test-secret", false).WithClock(func() time.Time { return now })

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, testIdentity(), false); err != nil {
		t.Fatalf("issue: %v", err)
	}
	r := requestWithCookies(rec)

	if _, err := m.Verify(r); err != nil {
		t.Fatalf("verify before expiry: %v", err)
	}

	now = now.Add(25 * time.Hour)
	if _, err := m.Verify(r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after expiry, got %v", err)
	}
}

func TestManager_OnboardingScopeIsNotASession(t *testing.T) {
	m := NewManager("test-secret", false)

	rec := httptest.NewRecorder()
	if err := m.IssueOnboarding(rec, testIdentity()); err != nil {
		t.Fatalf("issue onboarding: %v", err)
	}
	r := requestWithCookies(rec)

	if _, err := m.Verify(r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("onboarding cookie must not pass main verification, got %v", err)
	}

	claims, err := m.VerifyOnboarding(r)
	if err != nil {
		t.Fatalf("verify onboarding: %v", err)
	}
	if claims.Scope != ScopeOnboarding {
		t.Fatalf("expected onboarding scope, got %s", claims.Scope)
	}
}

func TestManager_EventsOnIssueAndClear(t *testing.T) {
	m := NewManager("test-secret", false)

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, testIdentity(), false); err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := requestWithCookies(rec)
	clearRec := httptest.NewRecorder()
	m.Clear(clearRec, r)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != SignedIn || events[0].UID != "uid-1" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Type != SignedOut || events[1].UID != "uid-1" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}

	cookie := findCookie(t, clearRec, SessionCookie)
	if cookie.MaxAge != -1 {
		t.Fatalf("clear must expire the cookie, got MaxAge %d", cookie.MaxAge)
	}
}

func TestManager_OnboardingIssuesNoEvent(t *testing.T) {
	m := NewManager("test-secret", false)

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	rec := httptest.NewRecorder()
	if err := m.IssueOnboarding(rec, testIdentity()); err != nil {
		t.Fatalf("issue onboarding: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("pending identities are not signed in; got %d events", len(events))
	}
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}
