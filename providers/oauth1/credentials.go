package oauth1

import (
	"net/url"
	"sort"
	"strings"
)

const (
	ParamToken             = "oauth_token"
	ParamTokenSecret       = "oauth_token_secret"
	ParamVerifier          = "oauth_verifier"
	ParamCallbackConfirmed = "oauth_callback_confirmed"
	ParamScreenName        = "screen_name"
	ParamUserID            = "user_id"
)

// Credentials is the flat parameter map produced by every negotiation step
// and stored as the account credential blob.
type Credentials map[string]string

// ParseCredentialString splits an urlencoded key=value&key=value body.
// Duplicate keys keep the last occurrence. Pairs without '=' or with an
// undecodable escape are skipped, so malformed input yields an empty map.
func ParseCredentialString(raw string) Credentials {
	parsed := Credentials{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return parsed
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil || strings.TrimSpace(decodedKey) == "" {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		parsed[decodedKey] = decodedValue
	}
	return parsed
}

// ParseCredentialBlob parses a credential blob previously produced by Encode.
func ParseCredentialBlob(blob []byte) Credentials {
	return ParseCredentialString(string(blob))
}

func (c Credentials) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	value, ok := c[key]
	return value, ok
}

func (c Credentials) Token() (string, bool) { return c.Get(ParamToken) }

func (c Credentials) Secret() (string, bool) { return c.Get(ParamTokenSecret) }

func (c Credentials) Verifier() (string, bool) { return c.Get(ParamVerifier) }

func (c Credentials) ScreenName() (string, bool) { return c.Get(ParamScreenName) }

func (c Credentials) UserID() (string, bool) { return c.Get(ParamUserID) }

func (c Credentials) CallbackConfirmed() bool {
	value, _ := c.Get(ParamCallbackConfirmed)
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

// Encode renders the map back into the urlencoded form with sorted keys.
func (c Credentials) Encode() string {
	if len(c) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for index, key := range keys {
		if index > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(url.QueryEscape(key))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(c[key]))
	}
	return builder.String()
}

func (c Credentials) Blob() []byte {
	return []byte(c.Encode())
}

func (c Credentials) Clone() Credentials {
	copied := make(Credentials, len(c))
	for key, value := range c {
		copied[key] = value
	}
	return copied
}

type RequestToken struct {
	Token             string
	Secret            string
	CallbackConfirmed bool
}

// AccessToken is the terminal artifact of a negotiation. Parameters keeps
// every field the platform returned.
type AccessToken struct {
	Token      string
	Secret     string
	UserID     string
	ScreenName string
	Parameters Credentials
}

// Credentials returns the parameter map suitable for the account vault.
func (t AccessToken) Credentials() Credentials {
	params := t.Parameters.Clone()
	setIfPresent(params, ParamToken, t.Token)
	setIfPresent(params, ParamTokenSecret, t.Secret)
	setIfPresent(params, ParamUserID, t.UserID)
	setIfPresent(params, ParamScreenName, t.ScreenName)
	return params
}

func requestTokenFromCredentials(params Credentials) RequestToken {
	token, _ := params.Token()
	secret, _ := params.Secret()
	return RequestToken{
		Token:             token,
		Secret:            secret,
		CallbackConfirmed: params.CallbackConfirmed(),
	}
}

func accessTokenFromCredentials(params Credentials) AccessToken {
	token, _ := params.Token()
	secret, _ := params.Secret()
	userID, _ := params.UserID()
	screenName, _ := params.ScreenName()
	return AccessToken{
		Token:      token,
		Secret:     secret,
		UserID:     userID,
		ScreenName: screenName,
		Parameters: params.Clone(),
	}
}

func setIfPresent(params Credentials, key, value string) {
	if value != "" {
		params[key] = value
	}
}
