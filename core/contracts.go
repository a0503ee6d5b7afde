package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// KeyValueStore is the flat, namespace-unaware substrate the account store is
// layered on. Implementations provide per-call atomicity only.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// SecureVault stores opaque blobs by service and account. Erasing an absent
// entry must not be an error.
type SecureVault interface {
	Store(ctx context.Context, service string, account string, blob []byte) error
	Retrieve(ctx context.Context, service string, account string) ([]byte, bool, error)
	Erase(ctx context.Context, service string, account string) error
}

// ValueCodec encodes structured values for the serialized accessor path.
type ValueCodec interface {
	Format() string
	Encode(value any) ([]byte, error)
	Decode(data []byte, out any) error
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// IdentifierGenerator returns a fresh account identifier candidate.
type IdentifierGenerator func() string

// AccountLike is the contract the registry needs from an account
// implementation.
type AccountLike interface {
	Identifier() string
	EnvironmentKey() string
	SetEnvironmentKey(environment string)
	UserID(ctx context.Context) (string, bool, error)
	AuthCredential(ctx context.Context) ([]byte, bool, error)
	SetAuthCredential(ctx context.Context, credential []byte) error
	ClearAuthCredential(ctx context.Context) error
	Purge(ctx context.Context) error
}

// AccountDependencies are handed to an AccountFactory by the registry.
type AccountDependencies struct {
	Store         *NamespacedStore
	Vault         *CredentialVault
	Notifications *NotificationCenter
	Config        Config
}

type AccountFactory[A AccountLike] func(identifier string, deps AccountDependencies) A
