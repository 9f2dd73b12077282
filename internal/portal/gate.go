// Package portal gates tenant-only content behind authentication and a
// linked active tenant record.
package portal

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/colivhub/portal-server-go/internal/model"
)

type State string

const (
	StateAuthLoading     State = "auth_loading"
	StateUnauthenticated State = "unauthenticated"
	StateTenantLoading   State = "tenant_loading"
	StateNoTenantLinked  State = "no_tenant_linked"
	StateTenantReady     State = "tenant_ready"
)

// Settled reports whether the state waits for user action rather than for a
// pending lookup.
func (s State) Settled() bool {
	return s == StateUnauthenticated || s == StateNoTenantLinked || s == StateTenantReady
}

// TenantLookup finds the single active tenant linked to an email address.
// It returns (nil, nil) when there is none.
type TenantLookup interface {
	FindActiveByEmail(ctx context.Context, email string) (*model.Tenant, error)
}

// Snapshot is the observable state of a Gate. Tenant is only set in
// StateTenantReady.
type Snapshot struct {
	State    State          `json:"state"`
	Email    string         `json:"email,omitempty"`
	Language model.Language `json:"language"`
	Tenant   *model.Tenant  `json:"tenant,omitempty"`
	Err      error          `json:"-"`
}

// Gate is the access state machine of one portal consumer:
//
//	auth_loading -> unauthenticated
//	auth_loading -> tenant_loading -> no_tenant_linked | tenant_ready
//
// Every identity change restarts it from tenant_loading or unauthenticated.
// The tenant is never carried over from a previous identity.
type Gate struct {
	lookup TenantLookup
	seq    *Sequencer
	key    string

	mu       sync.Mutex
	state    State
	identity *model.Identity
	lang     model.Language
	tenant   *model.Tenant
	err      error
}

// NewGate starts in auth_loading. Gates may share seq; each gets its own key.
func NewGate(lookup TenantLookup, seq *Sequencer, lang model.Language) *Gate {
	if !lang.Valid() {
		lang = model.LanguagePrimary
	}
	return &Gate{
		lookup: lookup,
		seq:    seq,
		key:    "gate:" + uuid.NewString(),
		state:  StateAuthLoading,
		lang:   lang,
	}
}

// SetIdentity feeds the result of session resolution into the gate. A nil
// identity means no session. For a new identity the tenant lookup runs
// synchronously; a lookup that has been superseded by a later SetIdentity or
// SignOut is discarded and the newer state is returned.
func (g *Gate) SetIdentity(ctx context.Context, identity *model.Identity) Snapshot {
	g.mu.Lock()
	if identity == nil {
		g.seq.Issue(g.key)
		g.resetLocked(StateUnauthenticated, nil)
		defer g.mu.Unlock()
		return g.snapshotLocked()
	}
	if g.sameIdentityLocked(identity) && g.state != StateAuthLoading && g.state != StateUnauthenticated {
		defer g.mu.Unlock()
		return g.snapshotLocked()
	}

	token := g.seq.Issue(g.key)
	g.resetLocked(StateTenantLoading, identity)
	g.mu.Unlock()

	tenant, err := g.lookup.FindActiveByEmail(ctx, identity.Email)

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.seq.IsLatest(g.key, token) {
		log.Debug().Str("email", identity.Email).Msg("discarding stale tenant lookup")
		return g.snapshotLocked()
	}

	switch {
	case err != nil:
		log.Warn().Err(err).Str("email", identity.Email).Msg("tenant lookup failed")
		g.state = StateNoTenantLinked
		g.err = err
	case tenant == nil:
		g.state = StateNoTenantLinked
	default:
		g.state = StateTenantReady
		g.tenant = tenant
	}
	return g.snapshotLocked()
}

// SignOut returns the gate to unauthenticated and discards any pending lookup.
func (g *Gate) SignOut() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq.Issue(g.key)
	g.resetLocked(StateUnauthenticated, nil)
	return g.snapshotLocked()
}

// SetLanguage changes the active language selector.
func (g *Gate) SetLanguage(lang model.Language) {
	if !lang.Valid() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lang = lang
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Tenant returns the linked tenant, only in tenant_ready.
func (g *Gate) Tenant() (*model.Tenant, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateTenantReady {
		return nil, false
	}
	return g.tenant, true
}

// Close releases the gate's sequence key.
func (g *Gate) Close() {
	g.seq.Forget(g.key)
}

func (g *Gate) resetLocked(state State, identity *model.Identity) {
	g.state = state
	g.identity = identity
	g.tenant = nil
	g.err = nil
}

func (g *Gate) sameIdentityLocked(identity *model.Identity) bool {
	return g.identity != nil &&
		g.identity.UserID == identity.UserID &&
		g.identity.Email == identity.Email
}

func (g *Gate) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:    g.state,
		Language: g.lang,
		Err:      g.err,
	}
	if g.identity != nil {
		snap.Email = g.identity.Email
	}
	if g.state == StateTenantReady {
		snap.Tenant = g.tenant
	}
	return snap
}
