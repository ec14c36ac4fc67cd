package domain

import (
	"strings"

	derrors "github.com/xbojch/domainparser/errors"
	"github.com/xbojch/domainparser/idn"
)

// ResolvedDomain combines a Domain with its resolved PublicSuffix and the
// two views derived from them: the registrable domain (suffix plus one
// label) and the subdomain (everything left of the registrable domain).
// The derived views are recomputed whenever the domain or suffix changes,
// never patched independently.
type ResolvedDomain struct {
	domain      Domain
	suffix      PublicSuffix
	registrable Domain
	sub         Domain
}

// NewResolvedDomain attaches a public suffix to a domain and derives the
// registrable domain and subdomain views.
//
// A null or empty suffix is accepted without any structural check and
// yields null derived views. Otherwise the domain must carry at least two
// labels, must not end with a trailing dot, must not be identical to the
// suffix, and the suffix must be a true dot-delimited suffix of the domain
// once both are in the same encoding form.
func NewResolvedDomain(d Domain, ps PublicSuffix) (ResolvedDomain, error) {
	if ps.IsNull() || ps.String() == "" {
		return ResolvedDomain{
			domain:      d,
			suffix:      NullSuffix(),
			registrable: NullDomain(d.asciiFlags, d.unicodeFlags),
			sub:         NullDomain(d.asciiFlags, d.unicodeFlags),
		}, nil
	}

	if d.Len() < 2 {
		return ResolvedDomain{}, derrors.UnresolvableDomainError(d.String(), "it has fewer than 2 labels")
	}
	if d.IsAbsolute() {
		return ResolvedDomain{}, derrors.UnresolvableDomainError(d.String(), "it ends with a trailing dot")
	}

	ps, err := normalizeSuffix(d, ps)
	if err != nil {
		return ResolvedDomain{}, err
	}
	if d.String() == ps.String() {
		return ResolvedDomain{}, derrors.UnresolvableDomainError(d.String(), "it is identical to its public suffix")
	}
	if !strings.HasSuffix(d.String(), "."+ps.String()) {
		return ResolvedDomain{}, derrors.SuffixMismatchError(ps.String(), d.String())
	}

	labels := d.labels
	registrable, err := FromLabels(labels[len(labels)-ps.Len()-1:], d.asciiFlags, d.unicodeFlags)
	if err != nil {
		return ResolvedDomain{}, err
	}
	sub := NullDomain(d.asciiFlags, d.unicodeFlags)
	if rest := labels[:len(labels)-ps.Len()-1]; len(rest) > 0 {
		sub, err = FromLabels(rest, d.asciiFlags, d.unicodeFlags)
		if err != nil {
			return ResolvedDomain{}, err
		}
	}

	return ResolvedDomain{domain: d, suffix: ps, registrable: registrable, sub: sub}, nil
}

// normalizeSuffix converts ps into the same encoding form as d so that the
// textual suffix comparison is meaningful.
func normalizeSuffix(d Domain, ps PublicSuffix) (PublicSuffix, error) {
	ps.Domain = ps.Domain.WithAsciiFlags(d.asciiFlags).WithUnicodeFlags(d.unicodeFlags)
	if d.IsASCII() {
		return ps.ToAscii()
	}
	return ps.ToUnicode()
}

// normalizeDomainForm converts other into the same encoding form as d.
func normalizeDomainForm(d, other Domain) (Domain, error) {
	other = other.WithAsciiFlags(d.asciiFlags).WithUnicodeFlags(d.unicodeFlags)
	if d.IsASCII() {
		return other.ToAscii()
	}
	return other.ToUnicode()
}

// Domain returns the resolved domain.
func (r ResolvedDomain) Domain() Domain {
	return r.domain
}

// PublicSuffix returns the resolved public suffix.
func (r ResolvedDomain) PublicSuffix() PublicSuffix {
	return r.suffix
}

// RegistrableDomain returns the public suffix plus exactly one label, or
// the null domain if the suffix is unresolved.
func (r ResolvedDomain) RegistrableDomain() Domain {
	return r.registrable
}

// SubDomain returns the labels left of the registrable domain, or the null
// domain if none remain.
func (r ResolvedDomain) SubDomain() Domain {
	return r.sub
}

// String returns the textual form of the underlying domain.
func (r ResolvedDomain) String() string {
	return r.domain.String()
}

// WithPublicSuffix returns a new ResolvedDomain whose suffix labels have
// been replaced by the given suffix. The remainder of the domain is kept
// and all derived views are recomputed.
func (r ResolvedDomain) WithPublicSuffix(ps PublicSuffix) (ResolvedDomain, error) {
	if !ps.IsNull() {
		var err error
		ps, err = normalizeSuffix(r.domain, ps)
		if err != nil {
			return ResolvedDomain{}, err
		}
	}

	prefix := r.domain.labels[:r.domain.Len()-r.suffix.Len()]
	labels := append(append([]string(nil), prefix...), ps.labels...)
	if len(labels) == 0 {
		return NewResolvedDomain(NullDomain(r.domain.asciiFlags, r.domain.unicodeFlags), ps)
	}
	d, err := FromLabels(labels, r.domain.asciiFlags, r.domain.unicodeFlags)
	if err != nil {
		return ResolvedDomain{}, err
	}
	return NewResolvedDomain(d, ps)
}

// WithSubDomain returns a new ResolvedDomain whose subdomain has been
// replaced. A null sub removes the subdomain entirely.
func (r ResolvedDomain) WithSubDomain(sub Domain) (ResolvedDomain, error) {
	if r.registrable.IsNull() {
		return ResolvedDomain{}, derrors.MissingRegistrableDomainError(r.domain.String())
	}

	if !sub.IsNull() {
		var err error
		sub, err = normalizeDomainForm(r.domain, sub)
		if err != nil {
			return ResolvedDomain{}, err
		}
	}

	labels := append(sub.Labels(), r.registrable.labels...)
	d, err := FromLabels(labels, r.domain.asciiFlags, r.domain.unicodeFlags)
	if err != nil {
		return ResolvedDomain{}, err
	}
	return NewResolvedDomain(d, r.suffix)
}

// WithSecondLevelDomain returns a new ResolvedDomain whose label directly
// left of the public suffix has been replaced by the given label.
func (r ResolvedDomain) WithSecondLevelDomain(label string) (ResolvedDomain, error) {
	if r.registrable.IsNull() {
		return ResolvedDomain{}, derrors.MissingRegistrableDomainError(r.domain.String())
	}

	d, err := r.domain.WithLabel(r.domain.Len()-r.suffix.Len()-1, label)
	if err != nil {
		return ResolvedDomain{}, err
	}
	return NewResolvedDomain(d, r.suffix)
}

// ToAscii returns the resolution converted to its ASCII form.
func (r ResolvedDomain) ToAscii() (ResolvedDomain, error) {
	d, err := r.domain.ToAscii()
	if err != nil {
		return ResolvedDomain{}, err
	}
	ps, err := r.suffix.ToAscii()
	if err != nil {
		return ResolvedDomain{}, err
	}
	return NewResolvedDomain(d, ps)
}

// ToUnicode returns the resolution converted to its Unicode form.
func (r ResolvedDomain) ToUnicode() (ResolvedDomain, error) {
	d, err := r.domain.ToUnicode()
	if err != nil {
		return ResolvedDomain{}, err
	}
	ps, err := r.suffix.ToUnicode()
	if err != nil {
		return ResolvedDomain{}, err
	}
	return NewResolvedDomain(d, ps)
}

// WithAsciiFlags returns the resolution with new ASCII conversion flags on
// every component.
func (r ResolvedDomain) WithAsciiFlags(flags idn.Flags) (ResolvedDomain, error) {
	d := r.domain.WithAsciiFlags(flags)
	ps := r.suffix
	ps.Domain = ps.Domain.WithAsciiFlags(flags)
	return NewResolvedDomain(d, ps)
}

// WithUnicodeFlags returns the resolution with new Unicode conversion
// flags on every component.
func (r ResolvedDomain) WithUnicodeFlags(flags idn.Flags) (ResolvedDomain, error) {
	d := r.domain.WithUnicodeFlags(flags)
	ps := r.suffix
	ps.Domain = ps.Domain.WithUnicodeFlags(flags)
	return NewResolvedDomain(d, ps)
}
