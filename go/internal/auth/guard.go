package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/nexora/go/internal/httputil"
	"github.com/mcdev12/nexora/go/internal/kvstore"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
)

// Guard caches the authentication state and drops the cache whenever the
// token or session record changes, locally or in another process.
type Guard struct {
	app   *App
	clock clockwork.Clock
	unsub func()

	mu      sync.Mutex
	fresh   bool
	session *models.AuthSession
}

// NewGuard creates a guard watching repo for auth changes
func NewGuard(app *App, repo *state.Repository, clock clockwork.Clock) *Guard {
	g := &Guard{app: app, clock: clock}
	g.unsub = repo.Subscribe(func(kvstore.Change) {
		g.mu.Lock()
		g.fresh = false
		g.mu.Unlock()
	}, state.KeyAuthToken, state.KeyAuthSession)
	return g
}

// Close stops watching the store
func (g *Guard) Close() {
	g.unsub()
}

// Session returns the current session, re-reading the store only when the cached
// state is stale or has expired.
func (g *Guard) Session(ctx context.Context) (*models.AuthSession, bool) {
	g.mu.Lock()
	if g.fresh && (g.session == nil || g.session.Valid(g.clock.Now())) {
		s := g.session
		g.mu.Unlock()
		return s, s != nil
	}
	g.fresh = true
	g.mu.Unlock()

	s, err := g.app.Authenticated(ctx)
	if err != nil {
		s = nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// a change that landed while re-reading keeps the cache stale
	if g.fresh {
		g.session = s
	}
	return s, s != nil
}

// Authenticated reports whether a valid session exists.
func (g *Guard) Authenticated(ctx context.Context) bool {
	_, ok := g.Session(ctx)
	return ok
}

type sessionKey struct{}

// SessionFromContext returns the session attached by Middleware.
func SessionFromContext(ctx context.Context) (*models.AuthSession, bool) {
	s, ok := ctx.Value(sessionKey{}).(*models.AuthSession)
	return s, ok
}

// Middleware rejects requests without a valid "Authorization: Bearer <token>" header.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			httputil.JSON(w, http.StatusUnauthorized, httputil.ErrorBody{Error: ErrNotAuthenticated.Error()})
			return
		}
		if !g.Authenticated(r.Context()) {
			httputil.JSON(w, http.StatusUnauthorized, httputil.ErrorBody{Error: ErrNotAuthenticated.Error()})
			return
		}
		session, err := g.app.ValidateToken(r.Context(), token)
		if err != nil {
			httputil.JSON(w, http.StatusUnauthorized, httputil.ErrorBody{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}
