package accounts

import (
	"github.com/goliatone/go-accounts/codec"
	"github.com/goliatone/go-accounts/core"
	memorystore "github.com/goliatone/go-accounts/store/memory"
	memoryvault "github.com/goliatone/go-accounts/vault/memory"
)

type (
	Config            = core.Config
	EnvironmentConfig = core.EnvironmentConfig
	ManagementMode    = core.ManagementMode
	Option            = core.Option
	Account           = core.Account
	Registry          = core.Registry[*core.Account]
	Notification      = core.Notification
	NotificationName  = core.NotificationName
	KeyValueStore     = core.KeyValueStore
	SecureVault       = core.SecureVault
	ValueCodec        = core.ValueCodec
	Logger            = core.Logger
	LoggerProvider    = core.LoggerProvider
	MetricsRecorder   = core.MetricsRecorder
)

const (
	ManagementModeSingle   = core.ManagementModeSingle
	ManagementModeMultiple = core.ManagementModeMultiple

	WillChangeCurrentAccount = core.WillChangeCurrentAccount
	DidChangeCurrentAccount  = core.DidChangeCurrentAccount
	WillClearAccounts        = core.WillClearAccounts
	DidClearAccounts         = core.DidClearAccounts
	WillClearCurrentAccount  = core.WillClearCurrentAccount
	DidClearCurrentAccount   = core.DidClearCurrentAccount
	DidUpdateAuthCredential  = core.DidUpdateAuthCredential
)

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorMapper         = core.WithErrorMapper
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithKeyValueStore       = core.WithKeyValueStore
	WithSecureVault         = core.WithSecureVault
	WithValueCodec          = core.WithValueCodec
	WithNotificationCenter  = core.WithNotificationCenter
	WithIdentifierGenerator = core.WithIdentifierGenerator
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewRegistry builds a registry backed by the in-memory store and vault with
// JSON serialized values. Options passed by the caller replace any of those.
func NewRegistry(cfg Config, opts ...Option) (*Registry, error) {
	return core.NewRegistry(cfg, append(defaultOptions(), opts...)...)
}

// Setup is an alias for NewRegistry.
func Setup(cfg Config, opts ...Option) (*Registry, error) {
	return NewRegistry(cfg, opts...)
}

func defaultOptions() []Option {
	return []Option{
		core.WithKeyValueStore(memorystore.New()),
		core.WithSecureVault(memoryvault.New()),
		core.WithValueCodec(codec.JSON{}),
	}
}
