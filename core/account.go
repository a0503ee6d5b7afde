package core

import (
	"bytes"
	"context"
	"strings"
)

const (
	FieldUserID              = "userID"
	FieldUsername            = "username"
	FieldEmail               = "email"
	FieldFullName            = "fullName"
	FieldFirstName           = "firstName"
	FieldLastName            = "lastName"
	FieldDescription         = "accountDescription"
	FieldPersonalURL         = "personalURL"
	FieldLocationDescription = "locationDescription"
	FieldPhoneNumber         = "phoneNumber"
	FieldAvatarURL           = "avatarURL"
	FieldUserHTTPEndpoint    = "userHTTPEndpoint"
	FieldUserAPIVersion      = "userAPIVersion"
)

// Account is one managed identity. Plain fields live in the namespaced store
// under the account's current environment; the auth credential lives only in
// the secure vault and is cached after the first read or write.
//
// Changing the environment never migrates stored values.
type Account struct {
	identifier    string
	environment   string
	store         *NamespacedStore
	vault         *CredentialVault
	notifications *NotificationCenter
	config        Config
	credentials   map[string][]byte
}

func NewAccount(identifier string, deps AccountDependencies) *Account {
	return &Account{
		identifier:    identifier,
		store:         deps.Store,
		vault:         deps.Vault,
		notifications: deps.Notifications,
		config:        deps.Config,
		credentials:   map[string][]byte{},
	}
}

func (a *Account) Identifier() string {
	if a == nil {
		return ""
	}
	return a.identifier
}

func (a *Account) EnvironmentKey() string {
	if a == nil {
		return ""
	}
	return a.environment
}

func (a *Account) SetEnvironmentKey(environment string) {
	if a == nil {
		return
	}
	a.environment = strings.TrimSpace(environment)
}

func (a *Account) UserID(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldUserID)
}

func (a *Account) SetUserID(ctx context.Context, value string) error {
	return a.setField(ctx, FieldUserID, value)
}

func (a *Account) Username(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldUsername)
}

func (a *Account) SetUsername(ctx context.Context, value string) error {
	return a.setField(ctx, FieldUsername, value)
}

func (a *Account) Email(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldEmail)
}

func (a *Account) SetEmail(ctx context.Context, value string) error {
	return a.setField(ctx, FieldEmail, value)
}

func (a *Account) FullName(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldFullName)
}

func (a *Account) SetFullName(ctx context.Context, value string) error {
	return a.setField(ctx, FieldFullName, value)
}

func (a *Account) FirstName(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldFirstName)
}

func (a *Account) SetFirstName(ctx context.Context, value string) error {
	return a.setField(ctx, FieldFirstName, value)
}

func (a *Account) LastName(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldLastName)
}

func (a *Account) SetLastName(ctx context.Context, value string) error {
	return a.setField(ctx, FieldLastName, value)
}

func (a *Account) Description(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldDescription)
}

func (a *Account) SetDescription(ctx context.Context, value string) error {
	return a.setField(ctx, FieldDescription, value)
}

func (a *Account) PersonalURL(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldPersonalURL)
}

func (a *Account) SetPersonalURL(ctx context.Context, value string) error {
	return a.setField(ctx, FieldPersonalURL, value)
}

func (a *Account) LocationDescription(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldLocationDescription)
}

func (a *Account) SetLocationDescription(ctx context.Context, value string) error {
	return a.setField(ctx, FieldLocationDescription, value)
}

func (a *Account) PhoneNumber(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldPhoneNumber)
}

func (a *Account) SetPhoneNumber(ctx context.Context, value string) error {
	return a.setField(ctx, FieldPhoneNumber, value)
}

func (a *Account) AvatarURL(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldAvatarURL)
}

func (a *Account) SetAvatarURL(ctx context.Context, value string) error {
	return a.setField(ctx, FieldAvatarURL, value)
}

func (a *Account) UserHTTPEndpoint(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldUserHTTPEndpoint)
}

func (a *Account) SetUserHTTPEndpoint(ctx context.Context, value string) error {
	return a.setField(ctx, FieldUserHTTPEndpoint, value)
}

func (a *Account) UserAPIVersion(ctx context.Context) (string, bool, error) {
	return a.field(ctx, FieldUserAPIVersion)
}

func (a *Account) SetUserAPIVersion(ctx context.Context, value string) error {
	return a.setField(ctx, FieldUserAPIVersion, value)
}

// HTTPEndpoint is the user override when set, else the configured endpoint
// for the account environment, else the default environment's endpoint.
func (a *Account) HTTPEndpoint(ctx context.Context) (string, error) {
	override, ok, err := a.UserHTTPEndpoint(ctx)
	if err != nil {
		return "", err
	}
	if ok && override != "" {
		return override, nil
	}
	entry, _ := a.config.Endpoint(a.environment)
	return entry.HTTPEndpoint, nil
}

// APIVersion resolves like HTTPEndpoint and finally falls back to
// Config.DefaultAPIVersion.
func (a *Account) APIVersion(ctx context.Context) (string, error) {
	override, ok, err := a.UserAPIVersion(ctx)
	if err != nil {
		return "", err
	}
	if ok && override != "" {
		return override, nil
	}
	if entry, found := a.config.Endpoint(a.environment); found && entry.APIVersion != "" {
		return entry.APIVersion, nil
	}
	return a.config.DefaultAPIVersion, nil
}

// AuthCredential returns the credential for the current environment, reading
// through to the vault on first access.
func (a *Account) AuthCredential(ctx context.Context) ([]byte, bool, error) {
	if a == nil {
		return nil, false, NewBadInputError("core: account is required")
	}
	if cached, ok := a.credentials[a.environment]; ok {
		return bytes.Clone(cached), true, nil
	}
	blob, ok, err := a.vault.Retrieve(ctx, a.identifier, a.environment)
	if err != nil || !ok {
		return nil, false, err
	}
	a.credentials[a.environment] = bytes.Clone(blob)
	return blob, true, nil
}

// SetAuthCredential stores credential in the vault. The cache only changes
// once the vault accepted the write. A nil credential clears it.
func (a *Account) SetAuthCredential(ctx context.Context, credential []byte) error {
	if credential == nil {
		return a.ClearAuthCredential(ctx)
	}
	if a == nil {
		return NewBadInputError("core: account is required")
	}
	if err := a.vault.Store(ctx, a.identifier, a.environment, credential); err != nil {
		return err
	}
	a.credentials[a.environment] = bytes.Clone(credential)
	a.postCredentialUpdate(ctx)
	return nil
}

// ClearAuthCredential erases the vault entry first and drops the cached value
// only after the erase succeeded.
func (a *Account) ClearAuthCredential(ctx context.Context) error {
	if a == nil {
		return NewBadInputError("core: account is required")
	}
	if err := a.vault.Erase(ctx, a.identifier, a.environment); err != nil {
		return err
	}
	delete(a.credentials, a.environment)
	a.postCredentialUpdate(ctx)
	return nil
}

func (a *Account) AccountDefaultsValue(ctx context.Context, key string) (any, bool, error) {
	return a.store.Object(ctx, key, a.Identifier(), a.EnvironmentKey())
}

func (a *Account) SetAccountDefaultsValue(ctx context.Context, key string, value any) error {
	return a.store.SetObject(ctx, value, key, a.Identifier(), a.EnvironmentKey())
}

func (a *Account) StringValue(ctx context.Context, key string) (string, bool, error) {
	return a.store.String(ctx, key, a.Identifier(), a.EnvironmentKey())
}

func (a *Account) BoolValue(ctx context.Context, key string) (bool, error) {
	return a.store.Bool(ctx, key, a.Identifier(), a.EnvironmentKey())
}

func (a *Account) SetBoolValue(ctx context.Context, key string, value bool) error {
	return a.store.SetBool(ctx, value, key, a.Identifier(), a.EnvironmentKey())
}

func (a *Account) SerializedValue(ctx context.Context, key string, out any) (bool, error) {
	return a.store.Serialized(ctx, out, key, a.Identifier(), a.EnvironmentKey())
}

func (a *Account) SetSerializedValue(ctx context.Context, key string, value any) error {
	return a.store.SetSerialized(ctx, value, key, a.Identifier(), a.EnvironmentKey())
}

// Purge runs the destruction sequence: vault credentials for every recorded
// environment first, then every plain-store entry of the account.
func (a *Account) Purge(ctx context.Context) error {
	if a == nil {
		return NewBadInputError("core: account is required")
	}
	if err := a.vault.EraseAll(ctx, a.identifier); err != nil {
		return err
	}
	clear(a.credentials)
	return a.store.PurgeAccount(ctx, a.identifier)
}

func (a *Account) field(ctx context.Context, key string) (string, bool, error) {
	if a == nil {
		return "", false, NewBadInputError("core: account is required")
	}
	return a.store.String(ctx, key, a.identifier, a.environment)
}

// setField stores value; an empty value clears the field.
func (a *Account) setField(ctx context.Context, key string, value string) error {
	if a == nil {
		return NewBadInputError("core: account is required")
	}
	if value == "" {
		return a.store.Remove(ctx, key, a.identifier, a.environment)
	}
	return a.store.SetString(ctx, value, key, a.identifier, a.environment)
}

func (a *Account) postCredentialUpdate(ctx context.Context) {
	a.notifications.Post(ctx, Notification{
		Name:      DidUpdateAuthCredential,
		AccountID: a.identifier,
	})
}
