//go:build !windows

package security

import (
	"context"
	"errors"
)

var errDPAPIUnsupported = errors.New("security: dpapi is only available on windows")

func (p *DPAPISecretProvider) Encrypt(context.Context, []byte) ([]byte, error) {
	return nil, errDPAPIUnsupported
}

func (p *DPAPISecretProvider) Decrypt(context.Context, []byte) ([]byte, error) {
	return nil, errDPAPIUnsupported
}

// DPAPIAvailable reports whether the current platform supports DPAPI.
func DPAPIAvailable() bool {
	return false
}
