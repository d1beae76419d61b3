// Package config loads the contact form configuration from YAML and maps it
// onto the options of the group, validation and submit packages.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-contactform/pkg/group"
	"github.com/goliatone/go-contactform/pkg/mask"
	"github.com/goliatone/go-contactform/pkg/messages"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/submit"
	"github.com/goliatone/go-contactform/pkg/validation"
)

const (
	DefaultRequiredContacts = 1
	DefaultMaxContacts      = 10
	DefaultDebounce         = 300 * time.Millisecond
	DefaultSuccessDismiss   = 5 * time.Second
	DefaultMinPhoneDigits   = 10
)

// Retry configures the submission retry policy.
type Retry struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"baseDelay"`
}

// Config is the full form configuration.
type Config struct {
	Endpoint         string               `yaml:"endpoint"`
	RequiredContacts int                  `yaml:"requiredContacts"`
	MaxContacts      int                  `yaml:"maxContacts"`
	Retry            Retry                `yaml:"retry"`
	RequestTimeout   time.Duration        `yaml:"requestTimeout"`
	Debounce         time.Duration        `yaml:"debounce"`
	SuccessDismiss   time.Duration        `yaml:"successDismiss"`
	MinPhoneDigits   int                  `yaml:"minPhoneDigits"`
	FormVersion      string               `yaml:"formVersion"`
	Source           string               `yaml:"source"`
	DepartmentMode   model.DepartmentMode `yaml:"departmentMode"`
	PhoneFormat      submit.PhoneFormat   `yaml:"phoneFormat"`
	Locale           string               `yaml:"locale"`
	Messages         map[string]string    `yaml:"messages"`
	Departments      model.OptionSet      `yaml:"departments"`
	Preferences      model.OptionSet      `yaml:"preferences"`
	ValidatePayload  bool                 `yaml:"validatePayload"`
	// Prefill is a query string applied to the initial state and to every
	// reset, e.g. "cnpj=12345678000195&razaoSocial=ACME".
	Prefill string `yaml:"prefill"`
}

// Default returns the stock configuration. Endpoint is left empty.
func Default() Config {
	return Config{
		RequiredContacts: DefaultRequiredContacts,
		MaxContacts:      DefaultMaxContacts,
		Retry: Retry{
			Attempts:  submit.DefaultMaxAttempts,
			BaseDelay: submit.DefaultBaseDelay,
		},
		Debounce:       DefaultDebounce,
		SuccessDismiss: DefaultSuccessDismiss,
		MinPhoneDigits: DefaultMinPhoneDigits,
		FormVersion:    submit.DefaultFormVersion,
		Source:         submit.DefaultSource,
		DepartmentMode: model.DepartmentSingle,
		PhoneFormat:    submit.PhoneMasked,
		Locale:         messages.LocalePortuguese,
		Departments:    model.DefaultDepartments(),
		Preferences:    model.DefaultPreferences(),
	}
}

// LoadFile reads path on top of Default.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadState reads a saved form state. YAML is a superset of JSON so both
// encodings are accepted; missing contact positions follow list order.
func LoadState(path string) (model.FormState, error) {
	if path == "" {
		return model.FormState{}, errors.New("config: state path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormState{}, fmt.Errorf("config: read state: %w", err)
	}
	var state model.FormState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return model.FormState{}, fmt.Errorf("config: parse state %s: %w", path, err)
	}
	for i := range state.Contacts {
		if state.Contacts[i].Position == 0 {
			state.Contacts[i].Position = i + 1
		}
	}
	return state, nil
}

// Load parses YAML on top of Default and validates the result. Empty input
// yields the defaults.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects impossible settings, reporting all of them.
func (c Config) Validate() error {
	var errs []error
	if c.RequiredContacts < 1 {
		errs = append(errs, fmt.Errorf("requiredContacts must be at least 1, got %d", c.RequiredContacts))
	}
	if c.MaxContacts < c.RequiredContacts {
		errs = append(errs, fmt.Errorf("maxContacts (%d) must not be below requiredContacts (%d)", c.MaxContacts, c.RequiredContacts))
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry.baseDelay must not be negative"))
	}
	if c.RequestTimeout < 0 || c.Debounce < 0 || c.SuccessDismiss < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.MinPhoneDigits < 1 {
		errs = append(errs, fmt.Errorf("minPhoneDigits must be at least 1, got %d", c.MinPhoneDigits))
	}
	switch c.DepartmentMode {
	case model.DepartmentSingle, model.DepartmentPerChannel:
	default:
		errs = append(errs, fmt.Errorf("departmentMode must be %q or %q, got %q", model.DepartmentSingle, model.DepartmentPerChannel, c.DepartmentMode))
	}
	switch c.PhoneFormat {
	case submit.PhoneMasked, submit.PhoneDigits:
	default:
		errs = append(errs, fmt.Errorf("phoneFormat must be %q or %q, got %q", submit.PhoneMasked, submit.PhoneDigits, c.PhoneFormat))
	}
	if len(c.Departments) == 0 {
		errs = append(errs, errors.New("departments must not be empty"))
	}
	if len(c.Preferences) == 0 {
		errs = append(errs, errors.New("preferences must not be empty"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// GroupConfig maps onto the repeating group manager.
func (c Config) GroupConfig() group.Config {
	return group.Config{
		Required:       c.RequiredContacts,
		Max:            c.MaxContacts,
		DepartmentMode: c.DepartmentMode,
	}
}

// Rules maps onto the validation engine.
func (c Config) Rules() validation.Rules {
	return validation.Rules{
		RequiredContacts: c.RequiredContacts,
		MinPhoneDigits:   c.MinPhoneDigits,
		DepartmentMode:   c.DepartmentMode,
		Departments:      c.Departments,
		Preferences:      c.Preferences,
	}
}

// PayloadOptions maps onto payload serialization.
func (c Config) PayloadOptions() submit.PayloadOptions {
	return submit.PayloadOptions{
		FormVersion: c.FormVersion,
		Source:      c.Source,
		PhoneFormat: c.PhoneFormat,
		Preferences: c.Preferences,
	}
}

// Catalog compiles the message catalog for Locale with Messages overrides.
func (c Config) Catalog() (*messages.Catalog, error) {
	return messages.New(c.Locale, c.Messages)
}

// CurrencyMask formats the annual revenue for Locale. The amount is always
// Brazilian Real; only grouping and decimal marks follow the locale.
func (c Config) CurrencyMask() mask.CurrencyMask {
	return mask.CurrencyMask{Locale: mask.CurrencyLocale(c.Locale)}
}

// Transport builds the HTTP transport for Endpoint.
func (c Config) Transport(opts ...submit.TransportOption) (*submit.HTTPTransport, error) {
	if strings.TrimSpace(c.Endpoint) == "" {
		return nil, errors.New("config: endpoint is required")
	}
	base := []submit.TransportOption{submit.WithTimeout(c.RequestTimeout)}
	return submit.NewHTTPTransport(c.Endpoint, append(base, opts...)...)
}
