package services

import (
	"context"
	"sync"

	"fintrack/internal/log"
	"fintrack/internal/store"
)

// Gate answers "does this identity hold the admin role" by looking for
// a grant row. The verdict is advisory: it only toggles what the UI
// shows. Privileged mutations are re-authorized at the store boundary.
//
// Each identity moves Unknown -> {Admin, NotAdmin} once and the
// verdict sticks until Reset. A grant revoked mid-session is therefore
// not reflected until the next full reload; that staleness window is
// part of the contract.
type Gate struct {
	admins store.AdminStore
	logger *log.Logger

	mu       sync.Mutex
	verdicts map[string]bool
}

func NewGate(admins store.AdminStore, logger *log.Logger) *Gate {
	return &Gate{
		admins:   admins,
		logger:   logger.WithComponent(log.ComponentGate),
		verdicts: make(map[string]bool),
	}
}

// IsAdmin reports whether userID holds at least one grant. A missing
// grant is a normal negative answer. Any query failure is logged and
// answered conservatively with false, without caching; the next check
// asks again.
func (g *Gate) IsAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}

	g.mu.Lock()
	if verdict, ok := g.verdicts[userID]; ok {
		g.mu.Unlock()
		return verdict
	}
	g.mu.Unlock()

	grants, err := g.admins.FindGrantsByUser(ctx, userID)
	if err != nil {
		g.logger.WarnContext(ctx, "Admin check failed, treating as non-admin",
			log.FieldError, err,
			log.FieldUserID, userID,
			log.FieldOperation, log.OpCheck)
		return false
	}

	verdict := len(grants) > 0
	g.mu.Lock()
	g.verdicts[userID] = verdict
	g.mu.Unlock()

	g.logger.DebugContext(ctx, "Admin verdict computed",
		log.FieldUserID, userID,
		"is_admin", verdict,
		log.FieldOperation, log.OpCheck)
	return verdict
}

// Reset forgets the cached verdict for one identity; the next IsAdmin
// re-evaluates. Called on sign-out and full reload.
func (g *Gate) Reset(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.verdicts, userID)
}
