package cli

import "fmt"

// AuthRequiredError means the command needs a session and nobody is logged in.
type AuthRequiredError struct {
	Issuer string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required for %s

To authenticate, run:
  ssc auth login

To check current authentication status:
  ssc auth status`, e.Issuer)
}

// Is matches any *AuthRequiredError.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError means the session ended at the identity provider or its
// tokens can no longer be renewed.
type AuthExpiredError struct {
	Issuer string
	Reason error
}

func (e *AuthExpiredError) Error() string {
	msg := fmt.Sprintf("Your session with %s has ended", e.Issuer)
	if e.Reason != nil {
		msg += fmt.Sprintf(": %v", e.Reason)
	}
	return msg + `

To re-authenticate, run:
  ssc auth login

Or try to refresh your token:
  ssc auth refresh`
}

func (e *AuthExpiredError) Unwrap() error {
	return e.Reason
}

// Is matches any *AuthExpiredError.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError means an interactive login did not produce a session.
type AuthFailedError struct {
	Issuer string
	Reason error
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed for %s: %v

To retry authentication, run:
  ssc auth login`, e.Issuer, e.Reason)
}

func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is matches any *AuthFailedError.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}
