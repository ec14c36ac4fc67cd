package domain

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	derrors "github.com/xbojch/domainparser/errors"
	"github.com/xbojch/domainparser/idn"
)

// regNameGroup matches one "reg-name" label: 1 to 63 characters drawn from
// the unreserved set, sub-delimiters, or percent-encoded octets.
const regNameGroup = `(?:[a-zA-Z0-9\-_~!$&'()*+,;=]|%[0-9A-Fa-f]{2}){1,63}`

var (
	hostGrammar = regexp.MustCompile(`^` + regNameGroup + `(?:\.` + regNameGroup + `)*\.?$`)

	// uriDelimiters are the bytes that mark the input as a URI fragment
	// rather than a bare host.
	uriDelimiters = ":/?#[]@ "
)

// Parse validates raw and splits it into a Domain. The empty string parses
// to a domain with a single empty label, which is distinct from the null
// domain returned by NullDomain.
//
// IP literals are rejected before any IDNA conversion is attempted, as are
// inputs carrying URI delimiters, so malformed text never reaches the
// conversion routine.
func Parse(raw string, asciiFlags, unicodeFlags idn.Flags) (Domain, error) {
	if raw == "" {
		return FromLabels([]string{""}, asciiFlags, unicodeFlags)
	}

	if ip := net.ParseIP(raw); ip != nil {
		return Domain{}, derrors.UnsupportedHostTypeError(raw)
	}

	decoded := idn.PercentDecode(raw)
	if hostGrammar.MatchString(decoded) && isASCIIString(decoded) {
		return FromLabels(strings.Split(strings.ToLower(decoded), "."), asciiFlags, unicodeFlags)
	}

	if strings.ContainsAny(decoded, uriDelimiters) {
		return Domain{}, derrors.InvalidCharactersError(raw)
	}

	if !isASCIIString(decoded) {
		ascii, err := idn.ToASCII(decoded, asciiFlags)
		if err != nil {
			return Domain{}, err
		}
		canonical, err := idn.ToUnicode(ascii, unicodeFlags)
		if err != nil {
			return Domain{}, err
		}
		return FromLabels(strings.Split(canonical, "."), asciiFlags, unicodeFlags)
	}

	return Domain{}, derrors.InvalidCharactersError(raw)
}

// FromValue resolves the "stringable or null" inputs accepted at the parse
// boundary: nil becomes the null domain, strings and Stringers are parsed,
// and a Domain passes through with its flags replaced. Anything else fails
// with a coercion error.
func FromValue(value any, asciiFlags, unicodeFlags idn.Flags) (Domain, error) {
	switch v := value.(type) {
	case nil:
		return NullDomain(asciiFlags, unicodeFlags), nil
	case string:
		return Parse(v, asciiFlags, unicodeFlags)
	case fmt.Stringer:
		return Parse(v.String(), asciiFlags, unicodeFlags)
	case Domain:
		return v.WithAsciiFlags(asciiFlags).WithUnicodeFlags(unicodeFlags), nil
	default:
		return Domain{}, derrors.New(derrors.InvalidCharacters, "cannot coerce a value of type %T into a domain", value)
	}
}

func isASCIIString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
