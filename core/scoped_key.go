package core

import (
	"net/url"
	"strings"
)

const (
	ScopedKeyPrefix       = "accounts::v1::"
	scopedKeySeparator    = "::"
	defaultEnvironmentTag = "@default"
)

// ScopedKey builds the substrate key for a base key owned by an account in an
// environment. An empty environment selects the default namespace. Segments
// are query-escaped so they never contain the separator, which keeps the
// encoding injective.
func ScopedKey(baseKey string, accountID string, environment string) string {
	var b strings.Builder
	b.WriteString(AccountPrefix(accountID))
	b.WriteString(environmentSegment(environment))
	b.WriteString(scopedKeySeparator)
	b.WriteString(url.QueryEscape(baseKey))
	return b.String()
}

// AccountPrefix is the common prefix of every scoped key owned by accountID.
func AccountPrefix(accountID string) string {
	return ScopedKeyPrefix + url.QueryEscape(accountID) + scopedKeySeparator
}

// ScopedKeyParts is the decoded form of a scoped key.
type ScopedKeyParts struct {
	BaseKey     string
	AccountID   string
	Environment string
}

// ParseScopedKey inverts ScopedKey. It reports false for keys outside the
// account namespace.
func ParseScopedKey(key string) (ScopedKeyParts, bool) {
	if !strings.HasPrefix(key, ScopedKeyPrefix) {
		return ScopedKeyParts{}, false
	}
	segments := strings.Split(strings.TrimPrefix(key, ScopedKeyPrefix), scopedKeySeparator)
	if len(segments) != 3 {
		return ScopedKeyParts{}, false
	}
	accountID, err := url.QueryUnescape(segments[0])
	if err != nil {
		return ScopedKeyParts{}, false
	}
	environment := ""
	if segments[1] != defaultEnvironmentTag {
		environment, err = url.QueryUnescape(segments[1])
		if err != nil || environment == "" {
			return ScopedKeyParts{}, false
		}
	}
	baseKey, err := url.QueryUnescape(segments[2])
	if err != nil {
		return ScopedKeyParts{}, false
	}
	return ScopedKeyParts{BaseKey: baseKey, AccountID: accountID, Environment: environment}, true
}

func environmentSegment(environment string) string {
	if environment == "" {
		return defaultEnvironmentTag
	}
	return url.QueryEscape(environment)
}
