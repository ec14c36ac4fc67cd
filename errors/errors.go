// Package errors defines the typed errors shared by every package in this
// module. Callers are expected to inspect errors with Is (or errors.As
// against *DomainError) rather than match on message text.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType provides a coarse category for DomainErrors.
type ErrorType int

const (
	// InternalServer is the catch-all for bugs on our side.
	InternalServer ErrorType = iota
	// InvalidCharacters indicates a host string containing bytes that can
	// never appear in a domain name.
	InvalidCharacters
	// UnsupportedHostType indicates an IP literal where a domain name was
	// required.
	UnsupportedHostType
	// IdnaConversion indicates a failed UTS-46 conversion; the error carries
	// the aggregated reasons reported by the conversion.
	IdnaConversion
	// InvalidLabelIndex indicates an out-of-range label access or edit.
	InvalidLabelIndex
	// UnresolvableDomain indicates a domain that structurally cannot carry a
	// public suffix (too few labels, trailing dot, equal to its suffix).
	UnresolvableDomain
	// SuffixMismatch indicates a suffix that is not a trailing
	// dot-delimited suffix of the domain it was attached to.
	SuffixMismatch
	// MissingRegistrableDomain indicates a subdomain or second-level edit
	// attempted on a domain with no registrable domain.
	MissingRegistrableDomain
	// SourceFormat indicates malformed Public Suffix List or root zone
	// database text.
	SourceFormat
	// SourceUnreachable indicates a transport-level failure fetching an
	// external source.
	SourceUnreachable
	// InvalidSourceResponse indicates a non-success HTTP status from an
	// external source.
	InvalidSourceResponse
	// CacheCorrupted indicates stored data that no longer parses.
	CacheCorrupted
)

// DomainError is the concrete error type returned throughout this module.
type DomainError struct {
	Type   ErrorType
	Detail string

	// Reasons holds the individual conversion failures for IdnaConversion
	// errors. Empty for every other type.
	Reasons []string

	// StatusCode holds the received HTTP status for InvalidSourceResponse
	// errors. Zero for every other type.
	StatusCode int
}

func (de *DomainError) Error() string {
	return de.Detail
}

// New is a convenience function for creating a new DomainError.
func New(errType ErrorType, msg string, args ...any) error {
	return &DomainError{
		Type:   errType,
		Detail: fmt.Sprintf(msg, args...),
	}
}

// Is tests the internal type of a DomainError.
func Is(err error, errType ErrorType) bool {
	dErr, ok := err.(*DomainError)
	if !ok {
		return false
	}
	return dErr.Type == errType
}

func InternalServerError(msg string, args ...any) error {
	return New(InternalServer, msg, args...)
}

func InvalidCharactersError(host string) error {
	return New(InvalidCharacters, "the host %q contains invalid characters", host)
}

func UnsupportedHostTypeError(host string) error {
	return New(UnsupportedHostType, "the host %q is an IP literal, not a domain", host)
}

// IdnaConversionError aggregates the reasons a UTS-46 conversion reported
// for the given input.
func IdnaConversionError(host string, reasons []string) error {
	return &DomainError{
		Type:    IdnaConversion,
		Detail:  fmt.Sprintf("IDNA conversion of %q failed: %s", host, strings.Join(reasons, "; ")),
		Reasons: reasons,
	}
}

func InvalidLabelIndexError(index, count int) error {
	return New(InvalidLabelIndex, "label index %d is out of range for a domain with %d labels", index, count)
}

func UnresolvableDomainError(domain, reason string) error {
	return New(UnresolvableDomain, "the domain %q cannot carry a public suffix: %s", domain, reason)
}

func SuffixMismatchError(suffix, domain string) error {
	return New(SuffixMismatch, "the suffix %q is not a suffix of the domain %q", suffix, domain)
}

func MissingRegistrableDomainError(domain string) error {
	return New(MissingRegistrableDomain, "the domain %q has no registrable domain", domain)
}

func SourceFormatError(msg string, args ...any) error {
	return New(SourceFormat, msg, args...)
}

func SourceUnreachableError(uri string, cause error) error {
	return New(SourceUnreachable, "the source %q could not be reached: %s", uri, cause)
}

// InvalidSourceResponseError records the received status code so callers
// can distinguish retryable statuses without parsing the message.
func InvalidSourceResponseError(uri string, statusCode int) error {
	return &DomainError{
		Type:       InvalidSourceResponse,
		Detail:     fmt.Sprintf("the source %q answered with unexpected status code %d", uri, statusCode),
		StatusCode: statusCode,
	}
}

func CacheCorruptedError(key string, cause error) error {
	return New(CacheCorrupted, "the cached value for %q is corrupted: %s", key, cause)
}
