// Package host provides the session host for the ssc command line: an
// in-memory location, a browser opener and a loopback listener for the OIDC
// redirect URI.
package host
