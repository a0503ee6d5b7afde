package accounts

import (
	"testing"

	"github.com/goliatone/go-accounts/providers/oauth1"
)

func TestTwitterNegotiator_UsesTwitterEndpoints(t *testing.T) {
	negotiator, err := TwitterNegotiator(oauth1.Config{Endpoints: oauth1.Endpoints{AuthorizeURL: "ignored"}})
	if err != nil {
		t.Fatalf("twitter negotiator: %v", err)
	}
	if negotiator.Endpoints() != oauth1.TwitterEndpoints() {
		t.Fatalf("unexpected endpoints %+v", negotiator.Endpoints())
	}
}

func TestNegotiatorFor(t *testing.T) {
	hooks := NewExtensionHooks()
	custom := oauth1.Endpoints{
		RequestTokenURL: "https://oauth.example/request_token",
		AuthorizeURL:    "https://oauth.example/authorize",
		AccessTokenURL:  "https://oauth.example/access_token",
	}
	if err := hooks.RegisterPlatformPack(PlatformPack{Name: "example", Endpoints: custom}); err != nil {
		t.Fatalf("register pack: %v", err)
	}

	negotiator, err := NegotiatorFor(hooks, "example", oauth1.Config{})
	if err != nil {
		t.Fatalf("negotiator for example: %v", err)
	}
	if negotiator.Endpoints() != custom {
		t.Fatalf("expected pack endpoints, got %+v", negotiator.Endpoints())
	}

	twitter, err := NegotiatorFor(nil, "Twitter", oauth1.Config{})
	if err != nil {
		t.Fatalf("negotiator for twitter: %v", err)
	}
	if twitter.Endpoints() != oauth1.TwitterEndpoints() {
		t.Fatalf("expected twitter endpoints without a pack")
	}

	if _, err := NegotiatorFor(hooks, "unknown", oauth1.Config{}); err == nil {
		t.Fatalf("expected unknown platform to fail")
	}
}
