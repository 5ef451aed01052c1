package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks cfg and returns every problem found in one ConfigurationError.
func Validate(cfg Config) error {
	err := Validator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ConfigurationError{ErrorType: "validation", Message: err.Error(), Err: err}
	}

	var result *multierror.Error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, fmt.Errorf("%s: failed %q check (value %v)", fe.Namespace(), describeTag(fe), fe.Value()))
	}
	result.ErrorFormat = func(es []error) string {
		return fmt.Sprintf("%d invalid field(s): %s", len(es), multierror.ListFormatFunc(es))
	}

	return &ConfigurationError{
		ErrorType: "validation",
		Message:   result.Error(),
		Suggestions: []string{
			"check config.yaml in the config directory",
			"check KEYCLOAK_URL, KEYCLOAK_REALM and KEYCLOAK_CLIENT_ID in the environment",
		},
		Err: result.ErrorOrNil(),
	}
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
