package portal

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"pixelpanic/internal/core/apperr"
	authdomain "pixelpanic/internal/features/auth/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is where a session resolution stands.
type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseResolved Phase = "resolved"
	PhaseFailed   Phase = "failed"
)

// SessionState is the outcome of resolving who the browser is.
// An anonymous visitor is resolved with a nil User.
type SessionState struct {
	Phase Phase
	User  *authdomain.User
	Err   error
}

// IsAuthenticated is false while pending or failed.
func (s SessionState) IsAuthenticated() bool {
	return s.Phase == PhaseResolved && s.User != nil
}

// HasRole reports whether the resolved user holds role.
func (s SessionState) HasRole(role authdomain.Role) bool {
	return s.IsAuthenticated() && s.User.Is(role)
}

type meResponse struct {
	User struct {
		ID          uuid.UUID `json:"id"`
		PhoneNumber string    `json:"phoneNumber"`
		Name        string    `json:"name"`
		Role        string    `json:"role"`
	} `json:"user"`
}

// SessionResolver asks the server who the current cookie belongs to.
type SessionResolver struct {
	client *Client

	mu    sync.Mutex
	state SessionState
}

// NewSessionResolver starts in the pending phase.
func NewSessionResolver(c *Client) *SessionResolver {
	return &SessionResolver{client: c, state: SessionState{Phase: PhasePending}}
}

// State returns the last resolution.
func (r *SessionResolver) State() SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Resolve calls GET /api/auth/me. A 401 is the normal anonymous answer and is not an error.
func (r *SessionResolver) Resolve(ctx context.Context) SessionState {
	r.set(SessionState{Phase: PhasePending})

	var me meResponse
	err := r.client.do(ctx, http.MethodGet, "/api/auth/me", nil, &me)
	switch {
	case IsStatus(err, http.StatusUnauthorized):
		r.client.log.Debug("No active session")
		return r.set(SessionState{Phase: PhaseResolved})
	case err != nil:
		r.client.log.Error("Failed to resolve session", zap.Error(err))
		return r.set(SessionState{Phase: PhaseFailed, Err: err})
	}

	role, err := authdomain.ParseRole(me.User.Role)
	if err != nil {
		r.client.log.Error("Session carries an unknown role", zap.String("role", me.User.Role))
		return r.set(SessionState{Phase: PhaseFailed, Err: fmt.Errorf("portal: %w", err)})
	}
	if me.User.ID == uuid.Nil {
		return r.set(SessionState{Phase: PhaseFailed, Err: apperr.Invalid("user", "session response has no user id")})
	}

	return r.set(SessionState{Phase: PhaseResolved, User: &authdomain.User{
		ID:          me.User.ID,
		PhoneNumber: me.User.PhoneNumber,
		Name:        me.User.Name,
		Role:        role,
	}})
}

func (r *SessionResolver) set(s SessionState) SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	return s
}
