// Package oauth1 negotiates OAuth 1.0a access credentials.
//
// Negotiator covers the three-legged flow, reverse auth and xAuth. Every step
// returns the flat Credentials map the account vault stores, and failures are
// go-errors envelopes carrying core.AccountErrorNegotiationFailed. Steps are
// never retried.
package oauth1
