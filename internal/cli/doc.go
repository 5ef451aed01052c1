// Package cli holds the error vocabulary shared by the ssc commands.
//
// ClassifyConnectionError turns low level dial, TLS, DNS and timeout failures
// into a ConnectionError with user guidance. The transport layer attaches the
// classification to every request that never got a response.
//
// AuthRequiredError, AuthExpiredError and AuthFailedError map to the semantic
// exit codes of the root command so scripts can tell "log in first" apart
// from a general failure.
package cli
