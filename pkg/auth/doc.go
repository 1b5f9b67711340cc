// Package auth provides the types that describe the state of cached OAuth
// access tokens, as reported by "tsinventory token status".
package auth
