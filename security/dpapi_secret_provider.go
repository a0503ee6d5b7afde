package security

import "github.com/goliatone/go-accounts/core"

// DPAPISecretProvider seals payloads with the Windows data protection API
// under the current user. Other platforms return an error from every call.
type DPAPISecretProvider struct {
	keyID string
}

func NewDPAPISecretProvider() *DPAPISecretProvider {
	return &DPAPISecretProvider{keyID: "dpapi-user"}
}

func (p *DPAPISecretProvider) KeyID() string {
	if p == nil || p.keyID == "" {
		return "dpapi-user"
	}
	return p.keyID
}

var _ core.SecretProvider = (*DPAPISecretProvider)(nil)
