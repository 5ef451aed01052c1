// Package logging provides the subsystem logger used across ssc.
//
// It is a thin layer over log/slog. Every record carries a "subsystem"
// attribute so output from the session manager, the OIDC client and the
// request wrapper can be told apart:
//
//	logging.InitForCLI(logging.LevelDebug, os.Stderr)
//	logging.Info("Session", "state changed to %s", state)
//	logging.Error("Request", err, "request to %s failed", url)
//
// Security relevant token events go through Audit, which prefixes the
// message with SECURITY_AUDIT and never includes token material.
package logging
