package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/authflow"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/identity"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/profile"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/session"
)

// harness runs the full route tree over in-memory repositories, with a
// cookie-jar client so sessions behave like a browser's.
type harness struct {
	srv      *httptest.Server
	client   *http.Client
	repo     *memRepo
	store    *memStore
	verifier *stubVerifier
	sessions *session.Manager
	gate     *profile.Gate
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := newMemRepo()
	store := newMemStore()
	verifier := &stubVerifier{}

	identities := identity.NewService(repo, verifier, identity.NewMemoryTokenStore(), nopMailer{}, "http://localhost")
	flows := authflow.NewService(identities, store)
	sessions := session.NewManager("test-secret", false)
	gate := profile.NewGate(store, zap.NewNop())
	sessions.Subscribe(func(ev session.Event) {
		// Synchronous in tests so the gate state is settled when the
		// response returns.
		switch ev.Type {
		case session.SignedIn:
			gate.Refresh(context.Background(), ev.UID)
		case session.SignedOut:
			gate.HandleSignOut(ev.UID)
		}
	})

	server := NewServer(zap.NewNop(), flows, identities, sessions, gate, store)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &harness{
		srv:      ts,
		client:   &http.Client{Jar: jar},
		repo:     repo,
		store:    store,
		verifier: verifier,
		sessions: sessions,
		gate:     gate,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, h.srv.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (h *harness) register(t *testing.T, username, email, password string) {
	t.Helper()
	resp, body := h.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username":        username,
		"email":           email,
		"password":        password,
		"confirmPassword": password,
		"phone":           "11999998888",
		"dob":             "2000-01-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d body %v", resp.StatusCode, body)
	}
}

// memRepo is an in-memory identity.Repository.
type memRepo struct {
	mu     sync.Mutex
	byUID  map[string]identity.Identity
	hashes map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{byUID: make(map[string]identity.Identity), hashes: make(map[string]string)}
}

func (r *memRepo) Create(_ context.Context, p identity.CreateParams) (identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.byUID {
		if strings.EqualFold(id.Email, p.Email) {
			return identity.Identity{}, identity.ErrEmailInUse
		}
	}
	id := identity.Identity{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		Provider:    p.Provider,
	}
	r.byUID[p.UID] = id
	if p.PasswordHash != "" {
		r.hashes[p.UID] = p.PasswordHash
	}
	return id, nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.byUID {
		if strings.EqualFold(id.Email, email) {
			id.PasswordHash = r.hashes[id.UID]
			return id, nil
		}
	}
	return identity.Identity{}, identity.ErrNotFound
}

func (r *memRepo) GetByUID(_ context.Context, uid string) (identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUID[uid]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	id.PasswordHash = r.hashes[uid]
	return id, nil
}

func (r *memRepo) UpdateProfile(_ context.Context, uid, displayName, photoURL string) (identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUID[uid]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	id.DisplayName = displayName
	id.PhotoURL = photoURL
	r.byUID[uid] = id
	return id, nil
}

func (r *memRepo) UpdatePasswordHash(_ context.Context, uid, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUID[uid]; !ok {
		return identity.ErrNotFound
	}
	r.hashes[uid] = passwordHash
	return nil
}

// memStore is an in-memory profile.Store with merge semantics.
type memStore struct {
	mu      sync.Mutex
	records map[string]profile.Record
	err     error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]profile.Record)}
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *memStore) Get(_ context.Context, uid string) (profile.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return profile.Record{}, s.err
	}
	rec, ok := s.records[uid]
	if !ok {
		return profile.Record{}, profile.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) SetMerge(_ context.Context, uid string, rec profile.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	existing, ok := s.records[uid]
	if !ok {
		s.records[uid] = rec
		return nil
	}
	merge := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	merge(&existing.Username, rec.Username)
	merge(&existing.Email, rec.Email)
	merge(&existing.Phone, rec.Phone)
	merge(&existing.DOB, rec.DOB)
	merge(&existing.ReferralCode, rec.ReferralCode)
	merge(&existing.Role, rec.Role)
	s.records[uid] = existing
	return nil
}

func (s *memStore) FindByUsername(_ context.Context, username string) (profile.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return profile.Record{}, s.err
	}
	for _, rec := range s.records {
		if rec.Username == username {
			return rec, nil
		}
	}
	return profile.Record{}, profile.ErrNotFound
}

func (s *memStore) FindByEmail(_ context.Context, email string) (profile.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return profile.Record{}, s.err
	}
	for _, rec := range s.records {
		if rec.Email == email {
			return rec, nil
		}
	}
	return profile.Record{}, profile.ErrNotFound
}

// stubVerifier accepts any token and returns fixed Google claims.
type stubVerifier struct {
	claims identity.GoogleClaims
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (identity.GoogleClaims, error) {
	return v.claims, nil
}

type nopMailer struct{}

func (nopMailer) Send(_, _, _ string) error { return nil }
