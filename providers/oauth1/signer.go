package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureMethodHMACSHA1 = "HMAC-SHA1"
	protocolVersion         = "1.0"
	oauthParamPrefix        = "oauth_"
)

// Signer produces HMAC-SHA1 Authorization headers over the normalized
// request parameters. Token and TokenSecret are empty for the request-token
// and xAuth steps.
type Signer struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
	Now            func() time.Time
	Nonce          func() (string, error)
}

// Sign sets the Authorization header on req. form carries the
// application/x-www-form-urlencoded body parameters, which take part in the
// signature; extra carries protocol parameters such as oauth_callback.
func (s Signer) Sign(req *http.Request, form url.Values, extra map[string]string) error {
	if req == nil || req.URL == nil {
		return fmt.Errorf("oauth1: http request is required")
	}
	if strings.TrimSpace(s.ConsumerKey) == "" {
		return fmt.Errorf("oauth1: consumer key is required")
	}
	oauthParams, err := s.protocolParams(extra)
	if err != nil {
		return err
	}

	params := url.Values{}
	for key, values := range req.URL.Query() {
		params[key] = append(params[key], values...)
	}
	for key, values := range form {
		params[key] = append(params[key], values...)
	}
	for key, value := range oauthParams {
		params.Set(key, value)
	}

	base := SignatureBaseString(req.Method, req.URL, params)
	oauthParams["oauth_signature"] = Signature(base, s.ConsumerSecret, s.TokenSecret)
	req.Header.Set("Authorization", authorizationHeader(oauthParams))
	return nil
}

func (s Signer) protocolParams(extra map[string]string) (map[string]string, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	nonceFn := s.Nonce
	if nonceFn == nil {
		nonceFn = randomNonce
	}
	nonce, err := nonceFn()
	if err != nil {
		return nil, fmt.Errorf("oauth1: generate nonce: %w", err)
	}

	params := map[string]string{
		"oauth_consumer_key":     strings.TrimSpace(s.ConsumerKey),
		"oauth_nonce":            nonce,
		"oauth_signature_method": SignatureMethodHMACSHA1,
		"oauth_timestamp":        strconv.FormatInt(now().Unix(), 10),
		"oauth_version":          protocolVersion,
	}
	if token := strings.TrimSpace(s.Token); token != "" {
		params["oauth_token"] = token
	}
	for key, value := range extra {
		if !strings.HasPrefix(key, oauthParamPrefix) || key == "oauth_signature" {
			continue
		}
		params[key] = value
	}
	return params, nil
}

// SignatureBaseString joins the upper-case method, the base string URI and
// the normalized parameters per RFC 5849 section 3.4.1.
func SignatureBaseString(method string, target *url.URL, params url.Values) string {
	return strings.Join([]string{
		percentEncode(strings.ToUpper(strings.TrimSpace(method))),
		percentEncode(baseStringURI(target)),
		percentEncode(normalizeParameters(params)),
	}, "&")
}

func Signature(baseString, consumerSecret, tokenSecret string) string {
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	_, _ = mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func baseStringURI(target *url.URL) string {
	if target == nil {
		return ""
	}
	scheme := strings.ToLower(target.Scheme)
	host := strings.ToLower(target.Hostname())
	port := target.Port()
	if port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

type encodedPair struct {
	key   string
	value string
}

func normalizeParameters(params url.Values) string {
	pairs := make([]encodedPair, 0, len(params))
	for key, values := range params {
		if key == "oauth_signature" || key == "realm" {
			continue
		}
		for _, value := range values {
			pairs = append(pairs, encodedPair{key: percentEncode(key), value: percentEncode(value)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key == pairs[j].key {
			return pairs[i].value < pairs[j].value
		}
		return pairs[i].key < pairs[j].key
	})
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, pair.key+"="+pair.value)
	}
	return strings.Join(parts, "&")
}

func authorizationHeader(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, percentEncode(key)+`="`+percentEncode(params[key])+`"`)
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// percentEncode applies the RFC 3986 unreserved set; url.QueryEscape differs
// on space and '~'.
func percentEncode(value string) string {
	const hexDigits = "0123456789ABCDEF"
	var builder strings.Builder
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			builder.WriteByte(c)
			continue
		}
		builder.WriteByte('%')
		builder.WriteByte(hexDigits[c>>4])
		builder.WriteByte(hexDigits[c&0x0F])
	}
	return builder.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
