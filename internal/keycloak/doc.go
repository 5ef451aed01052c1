// Package keycloak is the client for the self-service clients REST resource
// of a Keycloak realm. Requests carry the session's bearer token and run
// through the resilient request wrapper.
package keycloak
