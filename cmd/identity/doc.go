// Package identity holds keygate's account model: registration, credential
// verification, password hashing, and account deletion. Session state lives
// in cmd/internal/auth/session; identity only answers "who is this".
package identity
