// Package session holds the session state machine that sits between the OIDC
// client and everything that needs to know who is logged in.
//
// A Manager starts in StateLoading. Load either completes an OIDC callback or
// tries a silent login, after which the session is authenticated or
// unauthenticated until an event from the OIDC client changes it again.
package session
