package oauth1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-accounts/core"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxResponseBodyBytes  = 1 << 20 // 1 MiB
	outOfBandCallback     = "oob"
	maxErrorSnippetBytes  = 256

	xAuthModeReverse = "reverse_auth"
	xAuthModeClient  = "client_auth"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Consumer identifies the application registered with the platform.
type Consumer struct {
	Key    string
	Secret string
}

// PlatformSession signs a request with a credential the operating system
// already holds for the user, proving identity during reverse auth.
type PlatformSession interface {
	SignRequest(ctx context.Context, req *http.Request) error
}

// PlatformSessionFunc adapts a function to PlatformSession.
type PlatformSessionFunc func(ctx context.Context, req *http.Request) error

func (fn PlatformSessionFunc) SignRequest(ctx context.Context, req *http.Request) error {
	return fn(ctx, req)
}

type Config struct {
	Endpoints      Endpoints
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
	Logger         core.Logger
	Now            func() time.Time
	Nonce          func() (string, error)
}

type Negotiator struct {
	cfg          Config
	authorizeURL *url.URL
	httpClient   HTTPDoer
	logger       core.Logger
}

func NewNegotiator(cfg Config) (*Negotiator, error) {
	if cfg.Endpoints == (Endpoints{}) {
		cfg.Endpoints = TwitterEndpoints()
	}
	cfg.Endpoints = cfg.Endpoints.normalized()
	if err := cfg.Endpoints.Validate(); err != nil {
		return nil, err
	}
	authorizeURL, err := url.Parse(cfg.Endpoints.AuthorizeURL)
	if err != nil {
		return nil, core.NewBadInputError(fmt.Sprintf("oauth1: invalid authorize url: %v", err))
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time {
			return time.Now().UTC()
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	_, logger := glog.Resolve("accounts.oauth1", nil, cfg.Logger)

	return &Negotiator{
		cfg:          cfg,
		authorizeURL: authorizeURL,
		httpClient:   httpClient,
		logger:       glog.Ensure(logger),
	}, nil
}

func (n *Negotiator) Endpoints() Endpoints {
	return n.cfg.Endpoints
}

// RequestToken obtains a temporary credential. An empty callbackURL selects
// the out-of-band flow.
func (n *Negotiator) RequestToken(ctx context.Context, consumer Consumer, callbackURL string) (RequestToken, error) {
	if err := consumer.validate(); err != nil {
		return RequestToken{}, err
	}
	callbackURL = strings.TrimSpace(callbackURL)
	if callbackURL == "" {
		callbackURL = outOfBandCallback
	}
	params, err := n.exchange(ctx, "request_token", signedCall{
		endpoint: n.cfg.Endpoints.RequestTokenURL,
		signer:   n.signer(consumer, "", ""),
		extra:    map[string]string{"oauth_callback": callbackURL},
	})
	if err != nil {
		return RequestToken{}, err
	}
	if err := requireToken(params, "request token"); err != nil {
		return RequestToken{}, n.fail(ctx, "request_token", err)
	}
	return requestTokenFromCredentials(params), nil
}

// AuthorizationURL appends oauth_token to the authorize endpoint.
func (n *Negotiator) AuthorizationURL(token RequestToken) string {
	target := *n.authorizeURL
	query := target.Query()
	query.Set(ParamToken, token.Token)
	target.RawQuery = query.Encode()
	return target.String()
}

func (n *Negotiator) ExchangeVerifier(ctx context.Context, consumer Consumer, requestToken RequestToken, verifier string) (AccessToken, error) {
	if err := consumer.validate(); err != nil {
		return AccessToken{}, err
	}
	if strings.TrimSpace(requestToken.Token) == "" {
		return AccessToken{}, core.NewBadInputError("oauth1: request token is required")
	}
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return AccessToken{}, core.NewBadInputError("oauth1: verifier is required")
	}
	return n.accessToken(ctx, "access_token", signedCall{
		endpoint: n.cfg.Endpoints.AccessTokenURL,
		signer:   n.signer(consumer, requestToken.Token, requestToken.Secret),
		extra:    map[string]string{ParamVerifier: verifier},
	})
}

// ReverseAuthParameters performs the first reverse auth step and returns the
// signed parameter string the platform expects in the second step.
func (n *Negotiator) ReverseAuthParameters(ctx context.Context, consumer Consumer) (string, error) {
	if err := consumer.validate(); err != nil {
		return "", err
	}
	body, err := n.call(ctx, "reverse_auth_parameters", signedCall{
		endpoint: n.cfg.Endpoints.RequestTokenURL,
		signer:   n.signer(consumer, "", ""),
		form:     url.Values{"x_auth_mode": {xAuthModeReverse}},
	})
	if err != nil {
		return "", err
	}
	parameters := strings.TrimSpace(string(body))
	if parameters == "" {
		return "", n.fail(ctx, "reverse_auth_parameters",
			core.NewNegotiationError(nil, "oauth1: reverse auth response is empty"))
	}
	n.logStep(ctx, "reverse_auth_parameters", nil)
	return parameters, nil
}

// ReverseAuthWithSession exchanges reverse auth parameters for an access token
// using the platform session as proof.
func (n *Negotiator) ReverseAuthWithSession(ctx context.Context, session PlatformSession, consumerKey string, parameters string) (AccessToken, error) {
	if session == nil {
		return AccessToken{}, core.NewBadInputError("oauth1: platform session is required")
	}
	consumerKey = strings.TrimSpace(consumerKey)
	if consumerKey == "" {
		return AccessToken{}, core.NewBadInputError("oauth1: consumer key is required")
	}
	if strings.TrimSpace(parameters) == "" {
		return AccessToken{}, core.NewBadInputError("oauth1: reverse auth parameters are required")
	}
	return n.accessToken(ctx, "reverse_auth", signedCall{
		endpoint: n.cfg.Endpoints.AccessTokenURL,
		session:  session,
		form: url.Values{
			"x_reverse_auth_target":     {consumerKey},
			"x_reverse_auth_parameters": {parameters},
		},
	})
}

// AccessTokenWithPassword exchanges username and password for an access token
// through xAuth.
func (n *Negotiator) AccessTokenWithPassword(ctx context.Context, consumer Consumer, username, password string) (AccessToken, error) {
	if err := consumer.validate(); err != nil {
		return AccessToken{}, err
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return AccessToken{}, core.NewBadInputError("oauth1: username and password are required")
	}
	return n.accessToken(ctx, "xauth", signedCall{
		endpoint: n.cfg.Endpoints.AccessTokenURL,
		signer:   n.signer(consumer, "", ""),
		form: url.Values{
			"x_auth_username": {strings.TrimSpace(username)},
			"x_auth_password": {password},
			"x_auth_mode":     {xAuthModeClient},
		},
	})
}

func (n *Negotiator) accessToken(ctx context.Context, step string, call signedCall) (AccessToken, error) {
	params, err := n.exchange(ctx, step, call)
	if err != nil {
		return AccessToken{}, err
	}
	if err := requireToken(params, "access token"); err != nil {
		return AccessToken{}, n.fail(ctx, step, err)
	}
	return accessTokenFromCredentials(params), nil
}

type signedCall struct {
	endpoint string
	signer   Signer
	session  PlatformSession
	form     url.Values
	extra    map[string]string
}

func (n *Negotiator) exchange(ctx context.Context, step string, call signedCall) (Credentials, error) {
	body, err := n.call(ctx, step, call)
	if err != nil {
		return nil, err
	}
	params := ParseCredentialString(string(body))
	if _, ok := params.Token(); ok {
		n.logStep(ctx, step, nil)
	}
	return params, nil
}

func (n *Negotiator) call(ctx context.Context, step string, call signedCall) ([]byte, error) {
	if n == nil {
		return nil, core.NewBadInputError("oauth1: negotiator is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	requestCtx := ctx
	cancel := func() {}
	if n.cfg.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, n.cfg.RequestTimeout)
	}
	defer cancel()

	var payload io.Reader = http.NoBody
	if len(call.form) > 0 {
		payload = strings.NewReader(call.form.Encode())
	}
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, call.endpoint, payload)
	if err != nil {
		return nil, n.fail(ctx, step, core.NewNegotiationError(err, "oauth1: build request"))
	}
	if len(call.form) > 0 {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if call.session != nil {
		err = call.session.SignRequest(requestCtx, httpReq)
	} else {
		err = call.signer.Sign(httpReq, call.form, call.extra)
	}
	if err != nil {
		return nil, n.fail(ctx, step, core.NewNegotiationError(err, "oauth1: sign request"))
	}

	response, err := n.httpClient.Do(httpReq)
	if err != nil {
		return nil, n.fail(ctx, step, core.NewNegotiationError(err, "oauth1: "+step+" request failed"))
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if err != nil {
		return nil, n.fail(ctx, step, core.NewNegotiationError(err, "oauth1: read "+step+" response"))
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return nil, n.fail(ctx, step, core.NewNegotiationError(nil,
			fmt.Sprintf("oauth1: %s response exceeds %d bytes", step, maxResponseBodyBytes)))
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		negotiationErr := core.NewNegotiationError(nil, fmt.Sprintf(
			"oauth1: %s endpoint error (%d): %s", step, response.StatusCode, describeErrorBody(body),
		)).WithMetadata(map[string]any{
			"step":        step,
			"status_code": response.StatusCode,
		})
		return nil, n.fail(ctx, step, negotiationErr)
	}
	return body, nil
}

func (n *Negotiator) signer(consumer Consumer, token, tokenSecret string) Signer {
	return Signer{
		ConsumerKey:    consumer.Key,
		ConsumerSecret: consumer.Secret,
		Token:          token,
		TokenSecret:    tokenSecret,
		Now:            n.cfg.Now,
		Nonce:          n.cfg.Nonce,
	}
}

func (n *Negotiator) fail(ctx context.Context, step string, err error) error {
	n.logStep(ctx, step, err)
	return err
}

func (n *Negotiator) logStep(ctx context.Context, step string, err error) {
	if n == nil || n.logger == nil {
		return
	}
	logger := n.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if err != nil {
		logger.Warn("oauth1 "+step+" failed", "step", step, "error", err)
		return
	}
	logger.Info("oauth1 "+step+" succeeded", "step", step)
}

func (c Consumer) validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return core.NewBadInputError("oauth1: consumer key is required")
	}
	if strings.TrimSpace(c.Secret) == "" {
		return core.NewBadInputError("oauth1: consumer secret is required")
	}
	return nil
}

func requireToken(params Credentials, artifact string) error {
	if token, ok := params.Token(); !ok || strings.TrimSpace(token) == "" {
		return core.NewNegotiationError(nil, "oauth1: "+artifact+" response missing oauth_token")
	}
	return nil
}

// describeErrorBody extracts the platform message from JSON or form error
// bodies, falling back to a truncated raw snippet.
func describeErrorBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "empty response"
	}
	if gjson.Valid(trimmed) {
		for _, path := range []string{"errors.0.message", "error_description", "error.message", "error", "message"} {
			if result := gjson.Get(trimmed, path); result.Exists() && result.Type == gjson.String {
				if message := strings.TrimSpace(result.String()); message != "" {
					return message
				}
			}
		}
	}
	if form := ParseCredentialString(trimmed); len(form) > 0 {
		if message, ok := form.Get("error"); ok && strings.TrimSpace(message) != "" {
			return strings.TrimSpace(message)
		}
	}
	if len(trimmed) > maxErrorSnippetBytes {
		trimmed = trimmed[:maxErrorSnippetBytes]
	}
	return trimmed
}
