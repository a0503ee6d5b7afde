package accounts

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-accounts/providers/oauth1"
)

const TwitterPlatform = "twitter"

func TwitterNegotiator(cfg oauth1.Config) (*oauth1.Negotiator, error) {
	cfg.Endpoints = oauth1.TwitterEndpoints()
	return oauth1.NewNegotiator(cfg)
}

// NegotiatorFor builds a negotiator against the endpoints of a registered
// platform pack. The twitter platform resolves without a pack.
func NegotiatorFor(hooks *ExtensionHooks, platform string, cfg oauth1.Config) (*oauth1.Negotiator, error) {
	if pack, ok := hooks.PlatformPack(platform); ok {
		cfg.Endpoints = pack.Endpoints
		return oauth1.NewNegotiator(cfg)
	}
	if strings.TrimSpace(strings.ToLower(platform)) == TwitterPlatform {
		return TwitterNegotiator(cfg)
	}
	return nil, fmt.Errorf("accounts: platform %q is not registered", platform)
}
