// Package domain implements the host name value model: an immutable,
// validated label sequence with on-demand Unicode/ASCII conversion, plus
// the public-suffix decomposition types built on top of it.
package domain

import (
	"strings"

	derrors "github.com/xbojch/domainparser/errors"
	"github.com/xbojch/domainparser/idn"
)

const (
	// maxLabelLength is the RFC 1035 limit on a single label.
	maxLabelLength = 63
	// maxDomainLength is the limit on the stored textual form.
	maxDomainLength = 255
	// maxLabelCount bounds the number of labels a domain may carry.
	maxLabelCount = 127
)

// Domain is an ordered sequence of labels read left to right as written,
// e.g. "www.example.com" carries ["www", "example", "com"]. The zero value
// is the null domain, which represents "not a domain" without being an
// error. Domains are immutable; every edit returns a new value.
type Domain struct {
	labels       []string
	notNull      bool
	asciiFlags   idn.Flags
	unicodeFlags idn.Flags
}

// NullDomain returns the null domain carrying the given conversion flags.
func NullDomain(asciiFlags, unicodeFlags idn.Flags) Domain {
	return Domain{asciiFlags: asciiFlags, unicodeFlags: unicodeFlags}
}

// FromLabels builds a Domain from an already-parsed label sequence. The
// labels are validated against the length invariants but are not otherwise
// canonicalized.
func FromLabels(labels []string, asciiFlags, unicodeFlags idn.Flags) (Domain, error) {
	d := Domain{
		labels:       append([]string(nil), labels...),
		notNull:      true,
		asciiFlags:   asciiFlags,
		unicodeFlags: unicodeFlags,
	}
	err := d.validateLengths()
	if err != nil {
		return Domain{}, err
	}
	return d, nil
}

func (d Domain) validateLengths() error {
	if len(d.labels) > maxLabelCount {
		return derrors.IdnaConversionError(d.String(), []string{"the domain has too many labels"})
	}
	if len(d.String()) > maxDomainLength {
		return derrors.IdnaConversionError(d.String(), []string{"the domain exceeds 255 octets"})
	}
	for i, label := range d.labels {
		if len(label) > maxLabelLength {
			return derrors.IdnaConversionError(d.String(), []string{"a label exceeds 63 octets"})
		}
		// Only the last label may be empty, representing a trailing dot.
		if label == "" && i != len(d.labels)-1 {
			return derrors.IdnaConversionError(d.String(), []string{"a label is empty"})
		}
	}
	return nil
}

// IsNull reports whether d is the null domain.
func (d Domain) IsNull() bool {
	return !d.notNull
}

// IsAbsolute reports whether d was written with a trailing dot.
func (d Domain) IsAbsolute() bool {
	return d.notNull && len(d.labels) > 0 && d.labels[len(d.labels)-1] == ""
}

// Len returns the number of labels. The null domain has zero labels.
func (d Domain) Len() int {
	return len(d.labels)
}

// Labels returns a copy of the label sequence.
func (d Domain) Labels() []string {
	return append([]string(nil), d.labels...)
}

// Label returns the label at the given index. Negative indexes count from
// the right, so Label(-1) of "www.example.com" is "com".
func (d Domain) Label(index int) (string, error) {
	i := index
	if i < 0 {
		i += len(d.labels)
	}
	if i < 0 || i >= len(d.labels) {
		return "", derrors.InvalidLabelIndexError(index, len(d.labels))
	}
	return d.labels[i], nil
}

// String returns the textual form: the labels joined with dots. The null
// domain renders as the empty string.
func (d Domain) String() string {
	return strings.Join(d.labels, ".")
}

// AsciiFlags returns the flags used for conversions to ASCII form.
func (d Domain) AsciiFlags() idn.Flags {
	return d.asciiFlags
}

// UnicodeFlags returns the flags used for conversions to Unicode form.
func (d Domain) UnicodeFlags() idn.Flags {
	return d.unicodeFlags
}

// IsASCII reports whether the stored form contains only ASCII bytes.
func (d Domain) IsASCII() bool {
	for _, label := range d.labels {
		for i := 0; i < len(label); i++ {
			if label[i] > 127 {
				return false
			}
		}
	}
	return true
}

// ToAscii returns the domain converted to its ASCII (A-label) form.
func (d Domain) ToAscii() (Domain, error) {
	if d.IsNull() || d.IsASCII() {
		return d, nil
	}
	converted, err := idn.ToASCII(d.String(), d.asciiFlags)
	if err != nil {
		return Domain{}, err
	}
	return FromLabels(strings.Split(converted, "."), d.asciiFlags, d.unicodeFlags)
}

// ToUnicode returns the domain converted to its Unicode (U-label) form.
func (d Domain) ToUnicode() (Domain, error) {
	if d.IsNull() {
		return d, nil
	}
	converted, err := idn.ToUnicode(d.String(), d.unicodeFlags)
	if err != nil {
		return Domain{}, err
	}
	return FromLabels(strings.Split(converted, "."), d.asciiFlags, d.unicodeFlags)
}

// WithAsciiFlags returns a copy of d that will use the given flags for
// subsequent conversions to ASCII form.
func (d Domain) WithAsciiFlags(flags idn.Flags) Domain {
	d.asciiFlags = flags
	return d
}

// WithUnicodeFlags returns a copy of d that will use the given flags for
// subsequent conversions to Unicode form.
func (d Domain) WithUnicodeFlags(flags idn.Flags) Domain {
	d.unicodeFlags = flags
	return d
}

// WithLabel returns a copy of d with the label at the given index replaced.
// Negative indexes count from the right. An index equal to Len appends on
// the right; -Len-1 prepends on the left.
func (d Domain) WithLabel(index int, label string) (Domain, error) {
	parsed, err := Parse(label, d.asciiFlags, d.unicodeFlags)
	if err != nil {
		return Domain{}, err
	}
	if parsed.Len() != 1 {
		return Domain{}, derrors.New(derrors.InvalidCharacters, "the label %q is not a single label", label)
	}
	canonical := parsed.labels[0]

	i := index
	if i < 0 {
		i += len(d.labels)
	}
	switch {
	case i == len(d.labels):
		return FromLabels(append(d.Labels(), canonical), d.asciiFlags, d.unicodeFlags)
	case i == -1:
		return FromLabels(append([]string{canonical}, d.labels...), d.asciiFlags, d.unicodeFlags)
	case i < 0 || i > len(d.labels):
		return Domain{}, derrors.InvalidLabelIndexError(index, len(d.labels))
	}
	labels := d.Labels()
	labels[i] = canonical
	return FromLabels(labels, d.asciiFlags, d.unicodeFlags)
}

// WithoutLabel returns a copy of d with the label at the given index
// removed. Negative indexes count from the right.
func (d Domain) WithoutLabel(index int) (Domain, error) {
	i := index
	if i < 0 {
		i += len(d.labels)
	}
	if i < 0 || i >= len(d.labels) {
		return Domain{}, derrors.InvalidLabelIndexError(index, len(d.labels))
	}
	labels := append(d.Labels()[:i], d.labels[i+1:]...)
	if len(labels) == 0 {
		return NullDomain(d.asciiFlags, d.unicodeFlags), nil
	}
	return FromLabels(labels, d.asciiFlags, d.unicodeFlags)
}

// Append returns a copy of d with the given label added on the right, i.e.
// closest to the root.
func (d Domain) Append(label string) (Domain, error) {
	return d.WithLabel(len(d.labels), label)
}

// Prepend returns a copy of d with the given label added on the left.
func (d Domain) Prepend(label string) (Domain, error) {
	return d.WithLabel(-len(d.labels)-1, label)
}
