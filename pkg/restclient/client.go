package restclient

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fivetwenty-io/restprovider/internal/adapter"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report json tag names in error messages.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}

			return name
		})
	})

	return validate
}

// New creates a REST data provider. The API URL is normalized (trailing
// slashes removed, https:// assumed when no scheme is given) before the
// config is validated. The caller's config is not modified.
func New(config *provider.Config) (provider.DataProvider, error) {
	if config == nil {
		return nil, provider.ErrConfigRequired
	}

	if strings.TrimSpace(config.APIURL) == "" {
		return nil, provider.ErrAPIURLRequired
	}

	normalized := *config
	normalized.APIURL = normalizeURL(config.APIURL)

	err := validateConfig(&normalized)
	if err != nil {
		return nil, err
	}

	restAdapter, err := adapter.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create data provider: %w", err)
	}

	return restAdapter, nil
}

// NewWithURL creates a REST data provider with default settings.
func NewWithURL(apiURL string) (provider.DataProvider, error) {
	return New(&provider.Config{APIURL: apiURL})
}

// NewWithKeys creates a REST data provider that renames "id" per resource.
func NewWithKeys(apiURL string, keys provider.IdentifierRemap) (provider.DataProvider, error) {
	return New(&provider.Config{APIURL: apiURL, KeysByResource: keys})
}

func normalizeURL(apiURL string) string {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		apiURL = "https://" + apiURL
	}

	return apiURL
}

func validateConfig(config *provider.Config) error {
	err := getValidator().Struct(config)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %w", provider.ErrInvalidConfig, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Field()+": "+describe(fieldErr))
	}

	return fmt.Errorf("%w: %s", provider.ErrInvalidConfig, strings.Join(messages, "; "))
}

func describe(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must not be negative"
	case "printascii", "excludesall":
		return "must be a valid header name"
	default:
		return "failed " + fieldErr.Tag() + " validation"
	}
}
