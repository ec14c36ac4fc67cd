package domain

// Section identifies which part of the Public Suffix List a suffix was
// matched against.
type Section int

const (
	// UnknownSection marks a suffix that was not found in the list, e.g.
	// one produced by the implicit "any TLD is its own suffix" rule.
	UnknownSection Section = iota
	// ICANNSection marks a suffix from the ICANN DOMAINS section.
	ICANNSection
	// PrivateSection marks a suffix from the PRIVATE DOMAINS section.
	PrivateSection
)

func (s Section) String() string {
	switch s {
	case ICANNSection:
		return "ICANN"
	case PrivateSection:
		return "PRIVATE"
	default:
		return "UNKNOWN"
	}
}

// PublicSuffix is a Domain known to be an entry (or wildcard match) in the
// Public Suffix List, tagged with the section it came from. The zero value
// is the null suffix.
type PublicSuffix struct {
	Domain
	section Section
}

// NullSuffix returns the unresolved public suffix.
func NullSuffix() PublicSuffix {
	return PublicSuffix{}
}

// NewPublicSuffix tags a domain as a public suffix from the given section.
// Tagging the null domain always yields the null suffix.
func NewPublicSuffix(d Domain, section Section) PublicSuffix {
	if d.IsNull() {
		return PublicSuffix{}
	}
	return PublicSuffix{Domain: d, section: section}
}

// Section returns the list section the suffix was matched against.
func (ps PublicSuffix) Section() Section {
	return ps.section
}

// IsICANN reports whether the suffix came from the ICANN section.
func (ps PublicSuffix) IsICANN() bool {
	return ps.section == ICANNSection
}

// IsPrivate reports whether the suffix came from the PRIVATE section.
func (ps PublicSuffix) IsPrivate() bool {
	return ps.section == PrivateSection
}

// IsKnown reports whether the suffix was actually found in the list rather
// than inferred or absent.
func (ps PublicSuffix) IsKnown() bool {
	return ps.section != UnknownSection
}

// ToAscii returns the suffix converted to its ASCII form.
func (ps PublicSuffix) ToAscii() (PublicSuffix, error) {
	d, err := ps.Domain.ToAscii()
	if err != nil {
		return PublicSuffix{}, err
	}
	return PublicSuffix{Domain: d, section: ps.section}, nil
}

// ToUnicode returns the suffix converted to its Unicode form.
func (ps PublicSuffix) ToUnicode() (PublicSuffix, error) {
	d, err := ps.Domain.ToUnicode()
	if err != nil {
		return PublicSuffix{}, err
	}
	return PublicSuffix{Domain: d, section: ps.section}, nil
}
