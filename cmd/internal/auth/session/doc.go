// Package session implements keygate's per-device session lifecycle.
//
// It provides a multi-device session model: every (user, device) pair owns at
// most one live session holding the current refresh-token id. Refresh rotation
// is a compare-and-swap against that id, so of two concurrent refresh calls
// presenting the same token exactly one wins and the loser observes reuse.
//
// Access and refresh tokens are signed JWTs carrying the device binding and a
// unique token id. Logout revokes the presented access token (by id, until its
// natural expiry) and the session's refresh token.
//
// Transport (HTTP) integration is intentionally out of scope here.
package session
