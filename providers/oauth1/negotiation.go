package oauth1

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-accounts/core"
)

type State string

const (
	StateIdle                      State = "idle"
	StateRequestTokenPending       State = "request_token_pending"
	StateAwaitingUserAuthorization State = "awaiting_user_authorization"
	StateAccessTokenPending        State = "access_token_pending"
	StateComplete                  State = "complete"
	StateFailed                    State = "failed"
)

func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Negotiation tracks one three-legged attempt. Steps must be called in order;
// a step called from the wrong state returns a bad input error and leaves the
// state untouched. Any step failure moves the negotiation to StateFailed.
type Negotiation struct {
	negotiator *Negotiator
	consumer   Consumer

	mu           sync.Mutex
	state        State
	requestToken RequestToken
	accessToken  AccessToken
	err          error
}

func (n *Negotiator) Begin(consumer Consumer) *Negotiation {
	return &Negotiation{
		negotiator: n,
		consumer:   consumer,
		state:      StateIdle,
	}
}

func (g *Negotiation) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Negotiation) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *Negotiation) RequestToken() (RequestToken, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requestToken, g.requestToken.Token != ""
}

func (g *Negotiation) AccessToken() (AccessToken, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accessToken, g.state == StateComplete
}

// Start obtains the request token and returns the URL the user must visit.
func (g *Negotiation) Start(ctx context.Context, callbackURL string) (string, error) {
	if err := g.advance(StateIdle, StateRequestTokenPending); err != nil {
		return "", err
	}
	token, err := g.negotiator.RequestToken(ctx, g.consumer, callbackURL)
	if err != nil {
		g.failWith(err)
		return "", err
	}

	g.mu.Lock()
	g.requestToken = token
	g.state = StateAwaitingUserAuthorization
	g.mu.Unlock()
	return g.negotiator.AuthorizationURL(token), nil
}

// Complete exchanges the verifier the user brought back for the access token.
func (g *Negotiation) Complete(ctx context.Context, verifier string) (AccessToken, error) {
	if err := g.advance(StateAwaitingUserAuthorization, StateAccessTokenPending); err != nil {
		return AccessToken{}, err
	}
	g.mu.Lock()
	requestToken := g.requestToken
	g.mu.Unlock()

	token, err := g.negotiator.ExchangeVerifier(ctx, g.consumer, requestToken, verifier)
	if err != nil {
		g.failWith(err)
		return AccessToken{}, err
	}

	g.mu.Lock()
	g.accessToken = token
	g.state = StateComplete
	g.mu.Unlock()
	return token, nil
}

// Abort moves a non-terminal negotiation to StateFailed.
func (g *Negotiation) Abort(reason error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Terminal() {
		return core.NewBadInputError(fmt.Sprintf("oauth1: negotiation already %s", g.state))
	}
	if reason == nil {
		reason = core.NewNegotiationError(nil, "oauth1: negotiation aborted")
	}
	g.state = StateFailed
	g.err = reason
	return nil
}

func (g *Negotiation) advance(from, to State) error {
	if g == nil || g.negotiator == nil {
		return core.NewBadInputError("oauth1: negotiation is not initialized")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != from {
		return core.NewBadInputError(fmt.Sprintf("oauth1: cannot move to %s from %s", to, g.state)).
			WithMetadata(map[string]any{"state": string(g.state), "expected": string(from)})
	}
	g.state = to
	return nil
}

func (g *Negotiation) failWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateFailed
	g.err = err
}
