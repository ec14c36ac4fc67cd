// Package idn converts host names between their Unicode and
// ASCII-Compatible-Encoding (Punycode) forms using the UTS-46 algorithm.
// All functions are pure; conversion behavior is controlled entirely by the
// explicit Flags argument.
package idn

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"

	derrors "github.com/xbojch/domainparser/errors"
)

// ACEPrefix is the marker every Punycode-encoded label starts with.
const ACEPrefix = "xn--"

// Flags selects the optional checks applied during a UTS-46 conversion.
// Each bit maps onto one option of the underlying idna profile.
type Flags uint16

const (
	// CheckHyphens rejects labels with leading/trailing hyphens or hyphens
	// in the third and fourth position.
	CheckHyphens Flags = 1 << iota
	// CheckBidi enforces the BiDi rule of RFC 5893.
	CheckBidi
	// CheckJoiners enforces the CONTEXTJ rules of RFC 5892.
	CheckJoiners
	// UseSTD3Rules restricts labels to letters, digits and hyphens.
	UseSTD3Rules
	// ValidateLabels validates the mapped labels against RFC 5891.
	ValidateLabels
	// VerifyDNSLength enforces the 63-octet label and 253-octet name limits.
	VerifyDNSLength
	// Transitional maps deviation characters the pre-IDNA2008 way.
	Transitional
)

// DefaultAsciiFlags are the flags applied to ToASCII when the caller has no
// reason to deviate from a strict registration profile.
const DefaultAsciiFlags = CheckHyphens | CheckBidi | CheckJoiners | ValidateLabels | VerifyDNSLength

// DefaultUnicodeFlags are the flags applied to ToUnicode by default. The
// length checks are deliberately absent: a Unicode rendering of a valid
// ASCII domain may exceed the DNS wire limits.
const DefaultUnicodeFlags = CheckHyphens | CheckBidi | CheckJoiners | ValidateLabels

func (f Flags) profile() *idna.Profile {
	opts := []idna.Option{
		idna.MapForLookup(),
		idna.CheckHyphens(f&CheckHyphens != 0),
		idna.CheckJoiners(f&CheckJoiners != 0),
		idna.StrictDomainName(f&UseSTD3Rules != 0),
		idna.ValidateLabels(f&ValidateLabels != 0),
		idna.VerifyDNSLength(f&VerifyDNSLength != 0),
		idna.Transitional(f&Transitional != 0),
	}
	if f&CheckBidi != 0 {
		opts = append(opts, idna.BidiRule())
	}
	return idna.New(opts...)
}

// ToASCII percent-decodes text and converts it to its canonical ASCII
// (A-label) form. Pure-ASCII input skips conversion and is only lowercased.
// A percent sign surviving the decode step means the input was not a
// percent-encoded domain and fails with an InvalidCharacters error.
func ToASCII(text string, flags Flags) (string, error) {
	decoded := PercentDecode(text)
	if isASCII(decoded) {
		if strings.ContainsRune(decoded, '%') {
			return "", derrors.InvalidCharactersError(text)
		}
		return strings.ToLower(decoded), nil
	}

	ascii, err := flags.profile().ToASCII(decoded)
	if err != nil {
		return "", derrors.IdnaConversionError(text, conversionReasons(decoded, err))
	}
	if strings.ContainsRune(ascii, '%') {
		return "", derrors.InvalidCharactersError(text)
	}
	return strings.ToLower(ascii), nil
}

// ToUnicode converts text to its canonical Unicode (U-label) form. Text
// containing no ACE prefix is returned unchanged.
func ToUnicode(text string, flags Flags) (string, error) {
	if !strings.Contains(strings.ToLower(text), ACEPrefix) {
		return text, nil
	}

	unicodeText, err := flags.profile().ToUnicode(text)
	if err != nil {
		return "", derrors.IdnaConversionError(text, conversionReasons(text, err))
	}
	return unicodeText, nil
}

// PercentDecode decodes %XX octets in place. Malformed sequences are kept
// verbatim so the caller's character validation can reject them.
func PercentDecode(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Human-readable reasons for a failed conversion. The Go idna package
// reports a single opaque error, so the list is reconstructed from our own
// structural checks on the input, with the library's message as a fallback.
const (
	reasonEmptyLabel     = "a label is empty"
	reasonLabelTooLong   = "a label exceeds 63 octets"
	reasonDomainTooLong  = "the domain exceeds 253 octets"
	reasonLeadingHyphen  = "a label starts with a hyphen"
	reasonTrailingHyphen = "a label ends with a hyphen"
	reasonHyphen34       = "a label contains hyphens in the third and fourth positions"
	reasonCombiningMark  = "a label starts with a combining mark"
	reasonDisallowed     = "the domain contains disallowed characters"
	reasonInvalidACE     = "a label is an invalid ACE label"
)

func conversionReasons(input string, convErr error) []string {
	var reasons []string
	add := func(reason string) {
		for _, r := range reasons {
			if r == reason {
				return
			}
		}
		reasons = append(reasons, reason)
	}

	if len(input) > 253 {
		add(reasonDomainTooLong)
	}
	for _, label := range strings.Split(strings.TrimSuffix(input, "."), ".") {
		if label == "" {
			add(reasonEmptyLabel)
			continue
		}
		if len(label) > 63 {
			add(reasonLabelTooLong)
		}
		if label[0] == '-' {
			add(reasonLeadingHyphen)
		}
		if label[len(label)-1] == '-' {
			add(reasonTrailingHyphen)
		}
		if len(label) >= 4 && label[2] == '-' && label[3] == '-' && !strings.HasPrefix(strings.ToLower(label), ACEPrefix) {
			add(reasonHyphen34)
		}
		if r, _ := utf8.DecodeRuneInString(label); unicode.In(r, unicode.Mn, unicode.Mc, unicode.Me) {
			add(reasonCombiningMark)
		}
		if strings.HasPrefix(strings.ToLower(label), ACEPrefix) {
			// A well-formed A-label must survive a Unicode round trip and be
			// NFKC-normal once decoded.
			ulabel, err := idna.ToUnicode(label)
			if err != nil || !norm.NFKC.IsNormalString(ulabel) {
				add(reasonInvalidACE)
			}
		}
		for _, r := range label {
			if r <= unicode.MaxASCII && !isRegNameByte(byte(r)) {
				add(reasonDisallowed)
				break
			}
		}
	}

	if len(reasons) == 0 {
		add(convErr.Error())
	}
	return reasons
}

// isRegNameByte reports whether c may appear in a reg-name group:
// unreserved characters, sub-delimiters, percent, or underscore.
func isRegNameByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', '%':
		return true
	}
	return false
}
