package keycloak

import (
	"errors"
	"fmt"
	"strings"

	"ssc/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// ClientIDPrefix is required on every self-service client id.
const ClientIDPrefix = "ssc-"

var (
	// ErrClientIDImmutable is returned when an update tries to rename a client.
	ErrClientIDImmutable = errors.New("the clientId of an existing client cannot be changed")

	// ErrInvalidClient wraps validation failures of a WritableClient.
	ErrInvalidClient = errors.New("invalid client")
)

// WritableClient holds the client fields a user may set.
type WritableClient struct {
	ClientID                             string   `json:"clientId" validate:"required,startswith=ssc-"`
	Name                                 string   `json:"name"`
	Description                          string   `json:"description"`
	RootURL                              string   `json:"rootUrl" validate:"omitempty,url"`
	BaseURL                              string   `json:"baseUrl"`
	Enabled                              bool     `json:"enabled"`
	RedirectURIs                         []string `json:"redirectUris" validate:"dive,required"`
	WebOrigins                           []string `json:"webOrigins" validate:"dive,required"`
	PublicClient                         bool     `json:"publicClient"`
	FrontchannelLogout                   bool     `json:"frontchannelLogout"`
	BackchannelLogoutRevokeOfflineTokens bool     `json:"backchannelLogoutRevokeOfflineTokens"`
	BackchannelLogoutSessionRequired     bool     `json:"backchannelLogoutSessionRequired"`
	BackchannelLogoutURL                 string   `json:"backchannelLogoutUrl" validate:"omitempty,url"`
	FrontchannelLogoutURL                string   `json:"frontchannelLogoutUrl" validate:"omitempty,url"`
	PostLogoutRedirectURIs               []string `json:"postLogoutRedirectUris" validate:"dive,required"`

	// Managers are the usernames allowed to manage the client. They are
	// reported by the server but not written through the client resource.
	Managers []string `json:"managers,omitempty"`
}

// ClientRecord is a client as the server returns it.
type ClientRecord struct {
	WritableClient

	ID     string `json:"id"`
	Secret string `json:"secret,omitempty"`

	StandardFlowEnabled          bool `json:"standardFlowEnabled"`
	ImplicitFlowEnabled          bool `json:"implicitFlowEnabled"`
	DirectAccessGrantsEnabled    bool `json:"directAccessGrantsEnabled"`
	ServiceAccountsEnabled       bool `json:"serviceAccountsEnabled"`
	AuthorizationServicesEnabled bool `json:"authorizationServicesEnabled"`
}

// Cleaned returns a copy holding only the fields the server accepts on
// create and update.
func (w WritableClient) Cleaned() WritableClient {
	return WritableClient{
		ClientID:                             w.ClientID,
		Name:                                 w.Name,
		Description:                          w.Description,
		RootURL:                              w.RootURL,
		BaseURL:                              w.BaseURL,
		Enabled:                              w.Enabled,
		RedirectURIs:                         w.RedirectURIs,
		WebOrigins:                           w.WebOrigins,
		PublicClient:                         w.PublicClient,
		FrontchannelLogout:                   w.FrontchannelLogout,
		BackchannelLogoutRevokeOfflineTokens: w.BackchannelLogoutRevokeOfflineTokens,
		BackchannelLogoutSessionRequired:     w.BackchannelLogoutSessionRequired,
		BackchannelLogoutURL:                 w.BackchannelLogoutURL,
		FrontchannelLogoutURL:                w.FrontchannelLogoutURL,
		PostLogoutRedirectURIs:               w.PostLogoutRedirectURIs,
	}
}

// Validate checks the client against the self-service rules and reports
// every violation at once.
func (w WritableClient) Validate() error {
	err := config.Validator().Struct(w)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}

	var result *multierror.Error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, describeField(fe))
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return fmt.Errorf("%w: %w", ErrInvalidClient, result)
}

func describeField(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "startswith":
		return fmt.Errorf("%s must start with %q", fe.Field(), fe.Param())
	case "url":
		return fmt.Errorf("%s must be an absolute URL", fe.Field())
	default:
		return fmt.Errorf("%s failed the %q check", fe.Field(), fe.Tag())
	}
}
