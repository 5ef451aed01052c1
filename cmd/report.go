package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ssc/internal/cli"
	"ssc/internal/config"
	"ssc/internal/host"
	"ssc/internal/keycloak"
	"ssc/internal/transport"
	"ssc/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/text"
)

// errorMessage renders err the way the global error handler reports it.
// The details of network failures go to the debug log.
func errorMessage(err error) string {
	var (
		authRequired *cli.AuthRequiredError
		authExpired  *cli.AuthExpiredError
		authFailed   *cli.AuthFailedError
		configErr    *config.ConfigurationError
		responseErr  *transport.ResponseError
		noResponse   *transport.NoResponseError
	)

	switch {
	case errors.As(err, &authRequired):
		return authRequired.Error()
	case errors.As(err, &authExpired):
		return authExpired.Error()
	case errors.As(err, &authFailed):
		return authFailed.Error()
	case errors.As(err, &configErr):
		return configErr.DetailedError()
	case errors.Is(err, keycloak.ErrInvalidClient), errors.Is(err, keycloak.ErrClientIDImmutable), errors.Is(err, host.ErrHashRouting):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.As(err, &responseErr):
		logging.Debug("CLI", "request failed: %v (body: %s)", err, responseErr.Response.Body)
		if field := responseErr.ErrorField(); field != "" {
			return fmt.Sprintf("Network request failed with %q (Status code %d). For more information see dev console.", field, transport.StatusOf(err))
		}
		return fmt.Sprintf("Network request failed with %q. For more information see dev console.", err.Error())
	case errors.As(err, &noResponse):
		logging.Debug("CLI", "request failed: %v", err)
		msg := err.Error()
		if noResponse.Connection != nil {
			msg = noResponse.Connection.Error()
		}
		return fmt.Sprintf("Network request failed with %q. For more information see dev console.", msg)
	default:
		return fmt.Sprintf("Unexpected error: %q", err.Error())
	}
}

// reportError prints err for the user.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", text.FgRed.Sprint("Error:"), errorMessage(err))
}
