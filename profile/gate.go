package profile

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Gate tracks profile completeness per signed-in user. It refreshes on
// session events and on demand; the route guard reads snapshots and must
// never admit a dashboard request while a user's status is unknown or a
// check is in flight.
type Gate struct {
	store Store
	log   *zap.Logger

	mu     sync.Mutex
	states map[string]*userState
}

type userState struct {
	status   Status
	record   *Record
	inflight int
}

// Snapshot is the gate's view of one user at a point in time.
type Snapshot struct {
	Status   Status
	Checking bool
	Record   *Record
}

// NewGate creates a completeness gate over the given store.
func NewGate(store Store, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		store:  store,
		log:    log,
		states: make(map[string]*userState),
	}
}

// Refresh fetches the user's record and reclassifies completeness.
// A missing document classifies as incomplete; a fetch failure sets the
// error status and logs a warning instead of propagating. Overlapping
// refreshes are allowed; the last write wins.
func (g *Gate) Refresh(ctx context.Context, uid string) {
	if uid == "" {
		return
	}

	g.mu.Lock()
	st, ok := g.states[uid]
	if !ok {
		st = &userState{status: StatusUnknown}
		g.states[uid] = st
	}
	st.inflight++
	g.mu.Unlock()

	rec, err := g.store.Get(ctx, uid)

	g.mu.Lock()
	defer g.mu.Unlock()
	st.inflight--

	switch {
	case err == nil:
		st.record = &rec
		st.status = Classify(&rec)
	case errors.Is(err, ErrNotFound):
		st.record = nil
		st.status = StatusIncomplete
	default:
		g.log.Warn("profile refresh failed", zap.String("uid", uid), zap.Error(err))
		st.status = StatusError
	}
}

// Snapshot returns the current view for a uid. Users the gate has never
// seen report StatusUnknown.
func (g *Gate) Snapshot(uid string) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.states[uid]
	if !ok {
		return Snapshot{Status: StatusUnknown}
	}
	return Snapshot{
		Status:   st.status,
		Checking: st.inflight > 0,
		Record:   st.record,
	}
}

// HandleSignIn reacts to a session sign-in event with a background refresh.
func (g *Gate) HandleSignIn(uid string) {
	go g.Refresh(context.Background(), uid)
}

// HandleSignOut resets the user's status to unknown.
func (g *Gate) HandleSignOut(uid string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, uid)
}
