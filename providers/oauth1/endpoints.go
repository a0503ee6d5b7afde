package oauth1

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-accounts/core"
)

const (
	TwitterRequestTokenURL = "https://api.twitter.com/oauth/request_token"
	TwitterAuthorizeURL    = "https://api.twitter.com/oauth/authorize"
	TwitterAccessTokenURL  = "https://api.twitter.com/oauth/access_token"
)

type Endpoints struct {
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string
}

func TwitterEndpoints() Endpoints {
	return Endpoints{
		RequestTokenURL: TwitterRequestTokenURL,
		AuthorizeURL:    TwitterAuthorizeURL,
		AccessTokenURL:  TwitterAccessTokenURL,
	}
}

func (e Endpoints) Validate() error {
	for name, raw := range map[string]string{
		"request token": e.RequestTokenURL,
		"authorize":     e.AuthorizeURL,
		"access token":  e.AccessTokenURL,
	} {
		if raw == "" {
			return core.NewBadInputError("oauth1: " + name + " url is required")
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return core.NewBadInputError("oauth1: " + name + " url must be absolute")
		}
	}
	return nil
}

func (e Endpoints) normalized() Endpoints {
	return Endpoints{
		RequestTokenURL: strings.TrimSpace(e.RequestTokenURL),
		AuthorizeURL:    strings.TrimSpace(e.AuthorizeURL),
		AccessTokenURL:  strings.TrimSpace(e.AccessTokenURL),
	}
}
