package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ConnectionErrorType tells why a request never got a response.
type ConnectionErrorType int

const (
	ConnectionErrorUnknown ConnectionErrorType = iota
	ConnectionErrorTLS
	ConnectionErrorNetwork
	ConnectionErrorTimeout
	ConnectionErrorDNS
)

var connectionErrorNames = map[ConnectionErrorType]string{
	ConnectionErrorTLS:     "untrusted certificate",
	ConnectionErrorNetwork: "no connection",
	ConnectionErrorTimeout: "timeout",
	ConnectionErrorDNS:     "unknown host",
}

func (t ConnectionErrorType) String() string {
	if name, ok := connectionErrorNames[t]; ok {
		return name
	}
	return "unreachable"
}

// ConnectionError is attached to requests that failed before the server
// answered. Endpoint is the URL that was requested.
type ConnectionError struct {
	Endpoint string
	Type     ConnectionErrorType
	Reason   error
}

func (e *ConnectionError) Error() string {
	switch e.Type {
	case ConnectionErrorTLS:
		return fmt.Sprintf("The certificate of %s is not trusted: %v. Add the identity provider's CA to the system trust store", e.Endpoint, e.Reason)
	case ConnectionErrorDNS:
		return fmt.Sprintf("Cannot resolve the host of %s: %v. Check keycloak.url in your configuration", e.Endpoint, e.Reason)
	case ConnectionErrorTimeout:
		return fmt.Sprintf("%s did not answer in time: %v", e.Endpoint, e.Reason)
	case ConnectionErrorNetwork:
		return fmt.Sprintf("Cannot connect to %s: %v. Check your internet connection", e.Endpoint, e.Reason)
	default:
		return fmt.Sprintf("Cannot reach %s: %v", e.Endpoint, e.Reason)
	}
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// Checked in order; DNS and TLS failures also surface as *net.OpError.
var connectionClassifiers = []struct {
	kind  ConnectionErrorType
	match func(error) bool
}{
	{ConnectionErrorTLS, untrustedCertificate},
	{ConnectionErrorDNS, unknownHost},
	{ConnectionErrorTimeout, timedOut},
	{ConnectionErrorNetwork, noConnection},
}

// ClassifyConnectionError wraps err, which came from a request that got no
// response from endpoint, in a ConnectionError. It returns nil for nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}
	kind := ConnectionErrorUnknown
	for _, c := range connectionClassifiers {
		if c.match(err) {
			kind = c.kind
			break
		}
	}
	return &ConnectionError{Endpoint: endpoint, Type: kind, Reason: err}
}

func untrustedCertificate(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		unknownCA    x509.UnknownAuthorityError
		wrongHost    x509.HostnameError
		invalidCert  x509.CertificateInvalidError
		systemRoots  x509.SystemRootsError
		tlsAlert     tls.AlertError
		recordHeader tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &verifyErr), errors.As(err, &unknownCA), errors.As(err, &wrongHost),
		errors.As(err, &invalidCert), errors.As(err, &systemRoots), errors.As(err, &tlsAlert),
		errors.As(err, &recordHeader):
		return true
	}
	return containsAny(err.Error(), "x509:", "tls:")
}

func unknownHost(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && !dnsErr.IsTimeout
}

func timedOut(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return containsAny(err.Error(), "timeout", "deadline exceeded")
}

func noConnection(err error) bool {
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
		if errors.Is(err, errno) {
			return true
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return containsAny(err.Error(), "connection refused", "connection reset", "network is unreachable", "no route to host")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
