package core

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	RegistryAccountsKey = "registry::v1::accounts"
	RegistryCurrentKey  = "registry::v1::current"

	maxIdentifierAttempts = 8
)

// Registry owns a set of accounts and the current-account pointer.
//
// A Registry is not safe for concurrent use. It expects a single owner; share
// it across goroutines only behind external synchronization.
type Registry[A AccountLike] struct {
	config          Config
	loggerProvider  LoggerProvider
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	instrumentation instrumentation

	store         *NamespacedStore
	vault         *CredentialVault
	notifications *NotificationCenter
	factory       AccountFactory[A]
	newIdentifier IdentifierGenerator

	accounts   []A
	current    A
	hasCurrent bool
}

type RegistryDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Store           *NamespacedStore
	Vault           *CredentialVault
	Notifications   *NotificationCenter
}

type registryState struct {
	Mode         string            `cbor:"mode"`
	Accounts     []string          `cbor:"accounts"`
	Environments map[string]string `cbor:"environments,omitempty"`
}

// NewRegistry builds a registry of *Account values.
func NewRegistry(cfg Config, opts ...Option) (*Registry[*Account], error) {
	return NewRegistryWithFactory[*Account](cfg, NewAccount, opts...)
}

// Setup is an alias for NewRegistry.
func Setup(cfg Config, opts ...Option) (*Registry[*Account], error) {
	return NewRegistry(cfg, opts...)
}

func NewRegistryWithFactory[A AccountLike](cfg Config, factory AccountFactory[A], opts ...Option) (*Registry[A], error) {
	builder := defaultRegistryBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("accounts", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("accounts"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.notifications == nil {
		builder.notifications = NewNotificationCenter()
	}
	if builder.newIdentifier == nil {
		builder.newIdentifier = defaultRegistryBuilder(cfg).newIdentifier
	}
	if factory == nil {
		return nil, mapBuildError(builder.errorMapper, NewBadInputError("core: account factory is required"))
	}
	if builder.keyValueStore == nil {
		return nil, mapBuildError(builder.errorMapper, NewBadInputError("core: key value store is required"))
	}
	if builder.secureVault == nil {
		return nil, mapBuildError(builder.errorMapper, NewBadInputError("core: secure vault is required"))
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	store := NewNamespacedStore(builder.keyValueStore, builder.valueCodec)
	return &Registry[A]{
		config:          finalConfig,
		loggerProvider:  provider,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		instrumentation: instrumentation{
			logger:          logger,
			metricsRecorder: builder.metricsRecorder,
			metricPrefix:    finalConfig.ServiceName,
		},
		store:         store,
		vault:         NewCredentialVault(builder.secureVault, finalConfig.VaultService, store),
		notifications: builder.notifications,
		factory:       factory,
		newIdentifier: builder.newIdentifier,
	}, nil
}

func (r *Registry[A]) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.config
}

func (r *Registry[A]) Dependencies() RegistryDependencies {
	if r == nil {
		return RegistryDependencies{}
	}
	return RegistryDependencies{
		Logger:          r.instrumentation.logger,
		LoggerProvider:  r.loggerProvider,
		MetricsRecorder: r.instrumentation.metricsRecorder,
		ErrorMapper:     r.errorMapper,
		ConfigProvider:  r.configProvider,
		OptionsResolver: r.optionsResolver,
		Store:           r.store,
		Vault:           r.vault,
		Notifications:   r.notifications,
	}
}

func (r *Registry[A]) Store() *NamespacedStore {
	return r.store
}

func (r *Registry[A]) Notifications() *NotificationCenter {
	return r.notifications
}

func (r *Registry[A]) ManagementMode() ManagementMode {
	return r.config.ManagementMode
}

// Accounts returns a copy of the account list.
func (r *Registry[A]) Accounts() []A {
	return append([]A(nil), r.accounts...)
}

func (r *Registry[A]) CurrentAccount() (A, bool) {
	return r.current, r.hasCurrent
}

// NewAccount creates an empty account with a fresh identifier. It is not made
// current. In single mode a second account is rejected.
func (r *Registry[A]) NewAccount(ctx context.Context) (account A, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"management_mode": string(r.config.ManagementMode)}
	defer func() {
		if err == nil {
			fields["account_id"] = account.Identifier()
		}
		r.instrumentation.observeOperation(ctx, startedAt, "new_account", err, fields)
	}()

	if r.config.ManagementMode == ManagementModeSingle && len(r.accounts) > 0 {
		var zero A
		return zero, r.mapError(
			newAccountError("core: single management mode already holds an account", goerrors.CategoryConflict, AccountErrorSingleMode).
				WithMetadata(map[string]any{"existing_account_id": r.accounts[0].Identifier()}),
		)
	}

	identifier, err := r.uniqueIdentifier()
	if err != nil {
		var zero A
		return zero, r.mapError(err)
	}
	account = r.factory(identifier, r.accountDependencies())

	next := append(r.Accounts(), account)
	if err := r.persist(ctx, next, r.currentIdentifier()); err != nil {
		var zero A
		return zero, r.mapError(err)
	}
	r.accounts = next
	return account, nil
}

func (r *Registry[A]) AccountForIdentifier(identifier string) (A, bool) {
	for _, account := range r.accounts {
		if account.Identifier() == identifier {
			return account, true
		}
	}
	var zero A
	return zero, false
}

// AccountForUserID scans accounts in order and returns the first whose user id
// matches.
func (r *Registry[A]) AccountForUserID(ctx context.Context, userID string) (A, bool, error) {
	var zero A
	if strings.TrimSpace(userID) == "" {
		return zero, false, nil
	}
	for _, account := range r.accounts {
		value, ok, err := account.UserID(ctx)
		if err != nil {
			return zero, false, r.mapError(err)
		}
		if ok && value == userID {
			return account, true, nil
		}
	}
	return zero, false, nil
}

// RemoveAccountWithIdentifier destroys the account's vault and store entries
// and drops it from the registry. Unknown identifiers are a no-op.
func (r *Registry[A]) RemoveAccountWithIdentifier(ctx context.Context, identifier string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		r.instrumentation.observeOperation(ctx, startedAt, "remove_account", err, map[string]any{"account_id": identifier})
	}()

	idx := r.indexOf(identifier)
	if idx < 0 {
		return nil
	}
	account := r.accounts[idx]
	if err := account.Purge(ctx); err != nil {
		return r.mapError(err)
	}

	next := make([]A, 0, len(r.accounts)-1)
	next = append(next, r.accounts[:idx]...)
	next = append(next, r.accounts[idx+1:]...)

	wasCurrent := r.hasCurrent && r.current.Identifier() == identifier
	currentID := r.currentIdentifier()
	if wasCurrent {
		currentID = ""
	}
	if err := r.persist(ctx, next, currentID); err != nil {
		return r.mapError(err)
	}
	r.accounts = next

	if wasCurrent {
		r.post(ctx, Notification{Name: WillClearCurrentAccount, Previous: r.current})
		r.clearCurrent()
		r.post(ctx, Notification{Name: DidClearCurrentAccount, Previous: account})
	}
	return nil
}

// RemoveAllAccounts destroys every account and clears the current account,
// emitting a single will/did clear pair. The pair is completed even when a
// purge fails part way; the accounts not yet purged stay registered.
func (r *Registry[A]) RemoveAllAccounts(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	count := len(r.accounts)
	defer func() {
		r.instrumentation.observeOperation(ctx, startedAt, "remove_all_accounts", err, map[string]any{"count": count})
	}()

	r.post(ctx, Notification{Name: WillClearAccounts})
	for len(r.accounts) > 0 {
		account := r.accounts[0]
		if err := account.Purge(ctx); err != nil {
			if persistErr := r.persist(ctx, r.accounts, r.currentIdentifier()); persistErr != nil {
				r.instrumentation.logWarn(ctx, "registry state not saved after partial remove all", map[string]any{
					"error":     persistErr.Error(),
					"remaining": len(r.accounts),
				})
			}
			r.post(ctx, Notification{Name: DidClearAccounts})
			return r.mapError(err)
		}
		r.accounts = r.accounts[1:]
		if r.hasCurrent && r.current.Identifier() == account.Identifier() {
			r.clearCurrent()
		}
	}
	r.accounts = nil
	r.clearCurrent()
	persistErr := r.persist(ctx, nil, "")
	r.post(ctx, Notification{Name: DidClearAccounts})
	if persistErr != nil {
		return r.mapError(persistErr)
	}
	return nil
}

// SetCurrentAccount makes account current. Will-change fires before the
// pointer moves and did-change after, so did-change handlers observe the new
// value. Setting the account that is already current is a no-op.
func (r *Registry[A]) SetCurrentAccount(ctx context.Context, account A) (err error) {
	startedAt := time.Now().UTC()
	identifier := account.Identifier()
	defer func() {
		r.instrumentation.observeOperation(ctx, startedAt, "set_current_account", err, map[string]any{"account_id": identifier})
	}()

	if r.indexOf(identifier) < 0 {
		return r.mapError(NewBadInputError("core: account is not managed by this registry").
			WithMetadata(map[string]any{"account_id": identifier}))
	}
	if r.hasCurrent && r.current.Identifier() == identifier {
		return nil
	}

	previous := r.currentLike()
	if err := r.persist(ctx, r.accounts, identifier); err != nil {
		return r.mapError(err)
	}
	r.post(ctx, Notification{Name: WillChangeCurrentAccount, Previous: previous, Current: account})
	r.current = account
	r.hasCurrent = true
	r.post(ctx, Notification{Name: DidChangeCurrentAccount, Previous: previous, Current: account})
	return nil
}

// ClearCurrentAccount unsets the current account, emitting will/did clear
// current around the change.
func (r *Registry[A]) ClearCurrentAccount(ctx context.Context) error {
	if !r.hasCurrent {
		return nil
	}
	if err := r.persist(ctx, r.accounts, ""); err != nil {
		return r.mapError(err)
	}
	previous := r.current
	r.post(ctx, Notification{Name: WillClearCurrentAccount, Previous: previous})
	r.clearCurrent()
	r.post(ctx, Notification{Name: DidClearCurrentAccount, Previous: previous})
	return nil
}

// SetAccountEnvironment switches the account's environment and persists it so
// Restore brings the account back in the same environment. Stored values are
// not migrated. On a persist failure the previous environment is kept.
func (r *Registry[A]) SetAccountEnvironment(ctx context.Context, identifier string, environment string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		r.instrumentation.observeOperation(ctx, startedAt, "set_account_environment", err, map[string]any{
			"account_id":  identifier,
			"environment": environment,
		})
	}()

	account, ok := r.AccountForIdentifier(identifier)
	if !ok {
		return r.mapError(NewNotFoundError("core: account not found").
			WithMetadata(map[string]any{"account_id": identifier}))
	}
	previous := account.EnvironmentKey()
	account.SetEnvironmentKey(environment)
	if err := r.persist(ctx, r.accounts, r.currentIdentifier()); err != nil {
		account.SetEnvironmentKey(previous)
		return r.mapError(err)
	}
	return nil
}

func (r *Registry[A]) ClearAuthCredentialForAccountWithIdentifier(ctx context.Context, identifier string) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		r.instrumentation.observeOperation(ctx, startedAt, "clear_auth_credential", err, map[string]any{"account_id": identifier})
	}()

	account, ok := r.AccountForIdentifier(identifier)
	if !ok {
		return r.mapError(NewNotFoundError("core: account not found").
			WithMetadata(map[string]any{"account_id": identifier}))
	}
	if err := account.ClearAuthCredential(ctx); err != nil {
		return r.mapError(err)
	}
	return nil
}

// Restore rebuilds the account list and current account from the substrate.
// No notifications are emitted.
func (r *Registry[A]) Restore(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		r.instrumentation.observeOperation(ctx, startedAt, "restore", err, fields)
	}()

	kv := r.store.Substrate()
	raw, ok, err := kv.Get(ctx, RegistryAccountsKey)
	if err != nil {
		return r.mapError(NewStoreError(err, "core: read registry state"))
	}
	var state registryState
	if ok {
		if mismatch, decodeErr := decodeNativeValue(raw, &state); decodeErr != nil || mismatch {
			return r.mapError(NewEncodingError(decodeErr, "core: decode registry state"))
		}
	}
	currentRaw, hasCurrent, err := kv.Get(ctx, RegistryCurrentKey)
	if err != nil {
		return r.mapError(NewStoreError(err, "core: read current account"))
	}
	currentID := ""
	if hasCurrent {
		if mismatch, decodeErr := decodeNativeValue(currentRaw, &currentID); decodeErr != nil || mismatch {
			return r.mapError(NewEncodingError(decodeErr, "core: decode current account"))
		}
	}

	accounts := make([]A, 0, len(state.Accounts))
	for _, identifier := range state.Accounts {
		account := r.factory(identifier, r.accountDependencies())
		if environment := state.Environments[identifier]; environment != "" {
			account.SetEnvironmentKey(environment)
		}
		accounts = append(accounts, account)
	}
	r.accounts = accounts
	r.clearCurrent()
	if account, found := r.AccountForIdentifier(currentID); found && currentID != "" {
		r.current = account
		r.hasCurrent = true
	}

	fields["count"] = len(accounts)
	if state.Mode != "" && ManagementMode(state.Mode) != r.config.ManagementMode {
		r.instrumentation.logWarn(ctx, "restored registry was saved under a different management mode", map[string]any{
			"stored_mode":     state.Mode,
			"management_mode": string(r.config.ManagementMode),
		})
	}
	if r.config.ManagementMode == ManagementModeSingle && len(accounts) > 1 {
		r.instrumentation.logWarn(ctx, "single management mode restored more than one account", map[string]any{
			"count": len(accounts),
		})
	}
	return nil
}

func (r *Registry[A]) accountDependencies() AccountDependencies {
	return AccountDependencies{
		Store:         r.store,
		Vault:         r.vault,
		Notifications: r.notifications,
		Config:        r.config,
	}
}

func (r *Registry[A]) uniqueIdentifier() (string, error) {
	for range maxIdentifierAttempts {
		candidate := strings.TrimSpace(r.newIdentifier())
		if candidate == "" {
			continue
		}
		if r.indexOf(candidate) < 0 {
			return candidate, nil
		}
	}
	return "", newAccountError("core: could not generate a unique account identifier", goerrors.CategoryInternal, AccountErrorInternal)
}

func (r *Registry[A]) persist(ctx context.Context, accounts []A, currentID string) error {
	kv := r.store.Substrate()
	state := registryState{Mode: string(r.config.ManagementMode), Accounts: make([]string, 0, len(accounts))}
	for _, account := range accounts {
		state.Accounts = append(state.Accounts, account.Identifier())
		if environment := account.EnvironmentKey(); environment != "" {
			if state.Environments == nil {
				state.Environments = map[string]string{}
			}
			state.Environments[account.Identifier()] = environment
		}
	}
	raw, err := encodeNativeValue(state)
	if err != nil {
		return NewEncodingError(err, "core: encode registry state")
	}
	if err := kv.Set(ctx, RegistryAccountsKey, raw); err != nil {
		return NewStoreError(err, "core: write registry state")
	}
	if currentID == "" {
		if err := kv.Remove(ctx, RegistryCurrentKey); err != nil {
			return NewStoreError(err, "core: clear current account")
		}
		return nil
	}
	rawCurrent, err := encodeNativeValue(currentID)
	if err != nil {
		return NewEncodingError(err, "core: encode current account")
	}
	if err := kv.Set(ctx, RegistryCurrentKey, rawCurrent); err != nil {
		return NewStoreError(err, "core: write current account")
	}
	return nil
}

func (r *Registry[A]) indexOf(identifier string) int {
	for idx, account := range r.accounts {
		if account.Identifier() == identifier {
			return idx
		}
	}
	return -1
}

func (r *Registry[A]) currentIdentifier() string {
	if !r.hasCurrent {
		return ""
	}
	return r.current.Identifier()
}

func (r *Registry[A]) currentLike() AccountLike {
	if !r.hasCurrent {
		return nil
	}
	return r.current
}

func (r *Registry[A]) clearCurrent() {
	var zero A
	r.current = zero
	r.hasCurrent = false
}

func (r *Registry[A]) post(ctx context.Context, notification Notification) {
	r.notifications.Post(ctx, notification)
}

func (r *Registry[A]) mapError(err error) error {
	return mapBuildError(r.errorMapper, err)
}
