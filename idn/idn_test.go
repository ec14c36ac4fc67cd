package idn

import (
	"strings"
	"testing"

	derrors "github.com/xbojch/domainparser/errors"
	"github.com/xbojch/domainparser/test"
)

func TestToASCIIPlainASCII(t *testing.T) {
	got, err := ToASCII("WWW.ExAmPlE.COM", DefaultAsciiFlags)
	test.AssertNotError(t, err, "converting a plain ASCII host")
	test.AssertEquals(t, got, "www.example.com")
}

func TestToASCIIPercentDecoding(t *testing.T) {
	got, err := ToASCII("www%2Eexample%2Ecom", DefaultAsciiFlags)
	test.AssertNotError(t, err, "converting a percent-encoded host")
	test.AssertEquals(t, got, "www.example.com")
}

func TestToASCIIResidualPercent(t *testing.T) {
	_, err := ToASCII("www%zz.example.com", DefaultAsciiFlags)
	test.AssertError(t, err, "a malformed percent sequence should not convert")
	test.Assert(t, derrors.Is(err, derrors.InvalidCharacters), "expected an InvalidCharacters error")
}

func TestToASCIIUnicode(t *testing.T) {
	got, err := ToASCII("bücher.de", DefaultAsciiFlags)
	test.AssertNotError(t, err, "converting a Unicode host")
	test.AssertEquals(t, got, "xn--bcher-kva.de")
}

func TestToASCIIUppercaseUnicode(t *testing.T) {
	got, err := ToASCII("BüCHER.DE", DefaultAsciiFlags)
	test.AssertNotError(t, err, "converting a mixed-case Unicode host")
	test.AssertEquals(t, got, "xn--bcher-kva.de")
}

func TestToASCIIEmptyLabelReason(t *testing.T) {
	_, err := ToASCII("bücher..de", DefaultAsciiFlags)
	test.AssertError(t, err, "an empty label should not convert")
	var dErr *derrors.DomainError
	test.AssertErrorWraps(t, err, &dErr)
	test.AssertEquals(t, dErr.Type, derrors.IdnaConversion)
	test.AssertContains(t, strings.Join(dErr.Reasons, "; "), "a label is empty")
}

func TestToASCIILabelTooLongReason(t *testing.T) {
	_, err := ToASCII("ü"+strings.Repeat("a", 63)+".de", DefaultAsciiFlags)
	test.AssertError(t, err, "an overlong label should not convert")
	var dErr *derrors.DomainError
	test.AssertErrorWraps(t, err, &dErr)
	test.AssertContains(t, strings.Join(dErr.Reasons, "; "), "a label exceeds 63 octets")
}

func TestToUnicodeWithoutACEPrefix(t *testing.T) {
	got, err := ToUnicode("example.com", DefaultUnicodeFlags)
	test.AssertNotError(t, err, "converting a plain host to Unicode")
	test.AssertEquals(t, got, "example.com")
}

func TestToUnicode(t *testing.T) {
	got, err := ToUnicode("xn--bcher-kva.de", DefaultUnicodeFlags)
	test.AssertNotError(t, err, "converting an ACE host to Unicode")
	test.AssertEquals(t, got, "bücher.de")
}

// A conversion to Unicode and back must land on the same ASCII form as a
// direct conversion.
func TestRoundTripStability(t *testing.T) {
	for _, input := range []string{
		"example.com",
		"bücher.de",
		"xn--bcher-kva.de",
		"www.食狮.中国",
	} {
		direct, err := ToASCII(input, DefaultAsciiFlags)
		test.AssertNotError(t, err, "direct conversion of "+input)

		unicodeForm, err := ToUnicode(input, DefaultUnicodeFlags)
		test.AssertNotError(t, err, "Unicode conversion of "+input)

		indirect, err := ToASCII(unicodeForm, DefaultAsciiFlags)
		test.AssertNotError(t, err, "round-trip conversion of "+input)
		test.AssertEquals(t, indirect, direct)
	}
}

func TestPercentDecodeKeepsMalformedSequences(t *testing.T) {
	test.AssertEquals(t, PercentDecode("a%2eb"), "a.b")
	test.AssertEquals(t, PercentDecode("a%zzb"), "a%zzb")
	test.AssertEquals(t, PercentDecode("trailing%2"), "trailing%2")
}
