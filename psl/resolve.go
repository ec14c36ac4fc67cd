package psl

import (
	"github.com/xbojch/domainparser/domain"
)

// SectionFilter selects which list sections a resolution consults.
type SectionFilter int

const (
	// AnySection walks both sections and keeps the deeper match, with the
	// ICANN section winning ties.
	AnySection SectionFilter = iota
	// ICANNOnly restricts the walk to the ICANN DOMAINS section.
	ICANNOnly
	// PrivateOnly restricts the walk to the PRIVATE DOMAINS section.
	PrivateOnly
)

// ResolveOptions customizes a resolution.
type ResolveOptions struct {
	// Sections selects the list sections consulted.
	Sections SectionFilter

	// NoDefaultRule disables the implicit "any unlisted TLD is its own
	// public suffix" rule: unmatched domains resolve to the null suffix
	// instead of their rightmost label.
	NoDefaultRule bool
}

// Resolve computes the public suffix of d and returns the full
// decomposition into suffix, registrable domain and subdomain.
func (t *RuleTree) Resolve(d domain.Domain, opts ResolveOptions) (domain.ResolvedDomain, error) {
	ps, err := t.Suffix(d, opts)
	if err != nil {
		return domain.ResolvedDomain{}, err
	}
	return domain.NewResolvedDomain(d, ps)
}

// Suffix computes the longest matching public suffix of d, honoring
// wildcard and exception rules. The suffix keeps the encoding form of d.
func (t *RuleTree) Suffix(d domain.Domain, opts ResolveOptions) (domain.PublicSuffix, error) {
	if d.IsNull() || d.Len() == 0 {
		return domain.NullSuffix(), nil
	}

	// Matching operates on canonical ASCII labels; the result is cut from
	// the original domain so its form survives.
	ascii, err := d.ToAscii()
	if err != nil {
		return domain.PublicSuffix{}, err
	}
	labels := ascii.Labels()
	// A trailing empty label (absolute domain) never participates in
	// matching.
	if len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return domain.NullSuffix(), nil
	}

	matched, section := t.match(labels, opts.Sections)
	if matched == 0 {
		if opts.NoDefaultRule {
			return domain.NullSuffix(), nil
		}
		// The PSL's implicit rule: an unlisted TLD is its own suffix.
		matched, section = 1, domain.UnknownSection
	}

	suffix, err := suffixOf(d, matched)
	if err != nil {
		return domain.PublicSuffix{}, err
	}
	return domain.NewPublicSuffix(suffix, section), nil
}

// match walks the requested sections and returns the deepest match and the
// section that produced it.
func (t *RuleTree) match(labels []string, filter SectionFilter) (int, domain.Section) {
	var icann, private int
	if filter != PrivateOnly {
		icann = t.walk(t.icann, labels)
	}
	if filter != ICANNOnly {
		private = t.walk(t.private, labels)
	}

	if private > icann {
		return private, domain.PrivateSection
	}
	if icann > 0 {
		return icann, domain.ICANNSection
	}
	return 0, domain.UnknownSection
}

// walk advances from root through labels taken rightmost first, preferring
// an exact child over a wildcard child, and returns the matched label
// count. An exception node ends the walk at its parent's depth.
func (t *RuleTree) walk(root int32, labels []string) int {
	node := root
	matched := 0
	for i := len(labels) - 1; i >= 0; i-- {
		next, ok := t.child(node, labels[i])
		if !ok {
			next, ok = t.child(node, wildcardLabel)
		}
		if !ok {
			break
		}
		if t.nodes[next].exception {
			break
		}
		node = next
		matched++
	}
	return matched
}

// suffixOf cuts the trailing count labels out of d, preserving its flags
// and encoding form.
func suffixOf(d domain.Domain, count int) (domain.Domain, error) {
	labels := d.Labels()
	// Drop the trailing empty label of an absolute domain before cutting.
	if len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	return domain.FromLabels(labels[len(labels)-count:], d.AsciiFlags(), d.UnicodeFlags())
}
