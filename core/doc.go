// Package core holds the account domain: scoped keys, the namespaced store
// and its observers, the credential vault adapter, accounts, the registry and
// its notifications. Storage and vault backends live in sibling packages and
// plug in through KeyValueStore and SecureVault; core never imports them.
package core
