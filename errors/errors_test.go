package errors

import (
	"errors"
	"testing"
)

func TestIs(t *testing.T) {
	err := InvalidCharactersError("exa mple.com")
	if !Is(err, InvalidCharacters) {
		t.Errorf("expected %q to be an InvalidCharacters error", err)
	}
	if Is(err, UnsupportedHostType) {
		t.Errorf("expected %q not to be an UnsupportedHostType error", err)
	}
	if Is(errors.New("plain"), InvalidCharacters) {
		t.Error("expected a plain error not to match any DomainError type")
	}
}

func TestIdnaConversionErrorReasons(t *testing.T) {
	err := IdnaConversionError("xn--a", []string{"label too long", "disallowed characters"})
	var dErr *DomainError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected a *DomainError, got %T", err)
	}
	if len(dErr.Reasons) != 2 {
		t.Errorf("expected 2 reasons, got %d", len(dErr.Reasons))
	}
	if dErr.Error() != `IDNA conversion of "xn--a" failed: label too long; disallowed characters` {
		t.Errorf("unexpected error message: %q", dErr.Error())
	}
}

func TestInvalidSourceResponseStatusCode(t *testing.T) {
	err := InvalidSourceResponseError("https://example.org/list.dat", 503)
	var dErr *DomainError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected a *DomainError, got %T", err)
	}
	if dErr.StatusCode != 503 {
		t.Errorf("expected status code 503, got %d", dErr.StatusCode)
	}
}
