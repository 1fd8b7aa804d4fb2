package common

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a missing credential or setting required by a
// specific provider path.
type ConfigurationError struct {
	Setting  string // e.g. ALPHAVANTAGE_API_KEY
	Provider string
}

func (e *ConfigurationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s not set", e.Provider, e.Setting)
	}
	return fmt.Sprintf("%s not set", e.Setting)
}

// NoDataError reports that a provider answered but returned an empty dataset.
type NoDataError struct {
	Provider string
	Ticker   string
}

func (e *NoDataError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("%s: no data returned for %s", e.Provider, e.Ticker)
	}
	return fmt.Sprintf("%s: no data returned", e.Provider)
}

// ProviderError reports a rejection embedded in a provider response, such as
// a rate-limit note or an invalid-symbol message.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsNoData reports whether err wraps a NoDataError.
func IsNoData(err error) bool {
	var target *NoDataError
	return errors.As(err, &target)
}

// IsProviderError reports whether err wraps a ProviderError.
func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}

// PartialError reports that some sub-requests of a provider call failed while
// others succeeded. Results returned alongside it are still valid.
type PartialError struct {
	Provider string
	Failures []string
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s: %d failed: %s", e.Provider, len(e.Failures), strings.Join(e.Failures, "; "))
}

// AsPartial returns the PartialError wrapped by err, if any.
func AsPartial(err error) (*PartialError, bool) {
	var target *PartialError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
