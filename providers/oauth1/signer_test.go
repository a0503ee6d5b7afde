package oauth1

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSigner_MatchesPublishedTwitterVector(t *testing.T) {
	form := url.Values{"status": {"Hello Ladies + Gentlemen, a signed OAuth request!"}}
	req, err := http.NewRequest(http.MethodPost,
		"https://api.twitter.com/1.1/statuses/update.json?include_entities=true",
		strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	signer := Signer{
		ConsumerKey:    "xvz1evFS4wEEPTGEFPHBog",
		ConsumerSecret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
		Token:          "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		TokenSecret:    "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
		Now:            func() time.Time { return time.Unix(1318622958, 0) },
		Nonce:          func() (string, error) { return "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg", nil },
	}
	if err := signer.Sign(req, form, nil); err != nil {
		t.Fatalf("sign: %v", err)
	}

	header := req.Header.Get("Authorization")
	if !strings.HasPrefix(header, "OAuth ") {
		t.Fatalf("expected OAuth authorization header, got %q", header)
	}
	if !strings.Contains(header, `oauth_signature="hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D"`) {
		t.Fatalf("unexpected signature in header %q", header)
	}
	if !strings.Contains(header, `oauth_signature_method="HMAC-SHA1"`) {
		t.Fatalf("expected signature method in header %q", header)
	}
}

func TestSignatureBaseString_NormalizesParameters(t *testing.T) {
	target, _ := url.Parse("HTTP://Example.COM:80/r%20v/X?id=123")
	params := url.Values{
		"b5":              {"=%3D"},
		"a3":              {"a", "2 q"},
		"c@":              {""},
		"oauth_signature": {"ignored"},
		"realm":           {"ignored"},
	}
	base := SignatureBaseString("post", target, params)
	expected := "POST&http%3A%2F%2Fexample.com%2Fr%2520v%2FX&a3%3D2%2520q%26a3%3Da%26b5%3D%253D%25253D%26c%2540%3D"
	if base != expected {
		t.Fatalf("unexpected base string\nwant %s\ngot  %s", expected, base)
	}
}

func TestPercentEncode_UsesUnreservedSet(t *testing.T) {
	cases := map[string]string{
		"abc-._~":   "abc-._~",
		"a b":       "a%20b",
		"a+b":       "a%2Bb",
		"ü":         "%C3%BC",
		"!*'();:@&": "%21%2A%27%28%29%3B%3A%40%26",
	}
	for input, expected := range cases {
		if got := percentEncode(input); got != expected {
			t.Fatalf("percentEncode(%q): expected %q, got %q", input, expected, got)
		}
	}
}

func TestBaseStringURI_KeepsNonDefaultPort(t *testing.T) {
	target, _ := url.Parse("https://api.example.com:8443/oauth/request_token?x=1")
	if got := baseStringURI(target); got != "https://api.example.com:8443/oauth/request_token" {
		t.Fatalf("unexpected base uri %q", got)
	}
}

func TestSigner_RequiresConsumerKey(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "https://api.example.com/oauth", nil)
	if err := (Signer{}).Sign(req, nil, nil); err == nil {
		t.Fatalf("expected missing consumer key to fail")
	}
}
