package portal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// InvitePhase is a state of the invite acceptance page.
type InvitePhase string

const (
	InviteLoading           InvitePhase = "loading"
	InviteInvalid           InvitePhase = "invalid"
	InviteNeedsVerification InvitePhase = "needs_verification"
	InviteMismatch          InvitePhase = "mismatch"
	InviteReady             InvitePhase = "ready"
	InviteSubmitting        InvitePhase = "submitting"
	InviteAccepted          InvitePhase = "accepted"
	InviteError             InvitePhase = "error"
)

// TechnicianHome is where an accepted invitee lands.
const TechnicianHome = "/technician"

// ErrInviteNotReady is returned by Accept outside the ready state. No request is made.
var ErrInviteNotReady = errors.New("invite cannot be accepted in its current state")

// InviteDetails is what the invite link reveals.
type InviteDetails struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name,omitempty"`
}

// InviteAcceptance walks one invite token from lookup to acceptance.
type InviteAcceptance struct {
	client *Client
	token  string

	mu      sync.Mutex
	phase   InvitePhase
	invite  *InviteDetails
	phone   string
	matched bool
	err     error
}

// NewInviteAcceptance starts in the loading phase.
func NewInviteAcceptance(c *Client, token string) *InviteAcceptance {
	return &InviteAcceptance{client: c, token: token, phase: InviteLoading}
}

// Phase returns the current state.
func (a *InviteAcceptance) Phase() InvitePhase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Invite returns the loaded invite, nil until Load succeeds.
func (a *InviteAcceptance) Invite() *InviteDetails {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.invite
}

// Err returns the error behind the error phase.
func (a *InviteAcceptance) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Load looks the token up. An already verified session moves straight to the phone check.
// Mismatch and accepted are final and Load leaves them alone.
func (a *InviteAcceptance) Load(ctx context.Context, session SessionState) InvitePhase {
	if p := a.Phase(); p == InviteMismatch || p == InviteAccepted {
		return p
	}

	var out struct {
		OK     bool           `json:"ok"`
		Invite *InviteDetails `json:"invite"`
	}
	err := a.client.do(ctx, http.MethodGet, "/api/technicians/invites/"+url.PathEscape(a.token), nil, &out)

	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case IsStatus(err, http.StatusNotFound), IsStatus(err, http.StatusGone):
		a.phase = InviteInvalid
		return a.phase
	case err != nil:
		a.client.log.Error("Failed to load invite", zap.Error(err))
		a.phase, a.err = InviteError, err
		return a.phase
	case !out.OK || out.Invite == nil:
		a.phase = InviteInvalid
		return a.phase
	}

	a.invite = out.Invite
	if session.IsAuthenticated() && session.User.PhoneNumber != "" {
		a.compare(session.User.PhoneNumber)
	} else {
		a.phase = InviteNeedsVerification
	}
	return a.phase
}

// OnVerified records the phone the visitor just proved ownership of.
func (a *InviteAcceptance) OnVerified(phone string) InvitePhase {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase == InviteNeedsVerification {
		a.compare(phone)
	}
	return a.phase
}

// compare matches byte for byte. Mismatch is terminal.
func (a *InviteAcceptance) compare(phone string) {
	a.phone = phone
	if phone != a.invite.PhoneNumber {
		a.phase = InviteMismatch
		a.client.log.Warn("Invite phone mismatch")
		return
	}
	a.matched = true
	a.phase = InviteReady
}

// Accept posts the completion request. It returns the technician home route on success.
// A failed request leaves the invite retryable.
func (a *InviteAcceptance) Accept(ctx context.Context) (string, error) {
	a.mu.Lock()
	if !a.matched || (a.phase != InviteReady && a.phase != InviteError) {
		a.mu.Unlock()
		return "", ErrInviteNotReady
	}
	a.phase = InviteSubmitting
	phone := a.phone
	a.mu.Unlock()

	err := a.client.do(ctx, http.MethodPost, "/api/technicians/invites/"+url.PathEscape(a.token)+"/complete",
		map[string]string{"phoneNumber": phone}, nil)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.phase, a.err = InviteError, err
		return "", err
	}
	a.phase, a.err = InviteAccepted, nil
	return TechnicianHome, nil
}
