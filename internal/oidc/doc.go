// Package oidc implements the OpenID Connect side of the session: the
// authorization code flow with PKCE against Keycloak, the token cache and its
// storage, background renewal, and the lifecycle events a session manager
// subscribes to.
//
// Events are delivered synchronously, one at a time, in publish order.
// Handlers must not call Client methods that publish events.
package oidc
