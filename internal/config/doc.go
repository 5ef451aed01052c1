// Package config provides configuration management for ssc.
//
// Configuration is read from config.yaml in a single directory. The default is
// $XDG_CONFIG_HOME/ssc and the --config-path flag overrides it. An optional .env
// file in the same directory feeds the deploy-time environment, which wins over
// the file for the identity provider coordinates (KEYCLOAK_URL, KEYCLOAK_REALM,
// KEYCLOAK_CLIENT_ID) and the app location (APP_BASE_URL, ROUTER_MODE).
//
// Config also derives every URL the session and the resource client need:
// the OIDC authority, the clients REST resource, the admin and account console
// links, and the redirect URI for either router mode.
package config
