package psl

import (
	"encoding/json"
	"testing"

	"github.com/xbojch/domainparser/domain"
	"github.com/xbojch/domainparser/idn"
	"github.com/xbojch/domainparser/test"
)

const listText = `// This is a comment outside any section
ignored.example

// ===BEGIN ICANN DOMAINS===
com
uk
co.uk
jp
// jp geographic type names
*.ck
!www.ck
рф
// ===END ICANN DOMAINS===

// ===BEGIN PRIVATE DOMAINS===
github.io
compute.amazonaws.com
// ===END PRIVATE DOMAINS===
`

func buildTree(t *testing.T) *RuleTree {
	t.Helper()
	tree, err := NewRuleTreeFromString(listText)
	test.AssertNotError(t, err, "building the rule tree")
	return tree
}

func parse(t *testing.T, raw string) domain.Domain {
	t.Helper()
	d, err := domain.Parse(raw, idn.DefaultAsciiFlags, idn.DefaultUnicodeFlags)
	test.AssertNotError(t, err, "parsing "+raw)
	return d
}

func TestResolveSimple(t *testing.T) {
	tree := buildTree(t)

	r, err := tree.Resolve(parse(t, "example.com"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving example.com")
	test.AssertEquals(t, r.PublicSuffix().String(), "com")
	test.AssertEquals(t, r.RegistrableDomain().String(), "example.com")
	test.Assert(t, r.SubDomain().IsNull(), "expected a null subdomain")
	test.Assert(t, r.PublicSuffix().IsICANN(), "expected an ICANN match")
}

func TestResolveWithSubDomain(t *testing.T) {
	tree := buildTree(t)

	r, err := tree.Resolve(parse(t, "www.example.com"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving www.example.com")
	test.AssertEquals(t, r.SubDomain().String(), "www")
	test.AssertEquals(t, r.RegistrableDomain().String(), "example.com")
}

func TestResolveLongestMatch(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "www.example.co.uk"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving www.example.co.uk")
	test.AssertEquals(t, ps.String(), "co.uk")
	test.AssertEquals(t, ps.Len(), 2)
}

func TestResolveWildcard(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "www.foo.ck"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving www.foo.ck")
	test.AssertEquals(t, ps.String(), "foo.ck")
}

// The exception rule !www.ck carves www.ck out of the *.ck wildcard: its
// public suffix is ck alone.
func TestResolveException(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "www.ck"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving www.ck")
	test.AssertEquals(t, ps.String(), "ck")
	test.AssertEquals(t, ps.Len(), 1)

	r, err := tree.Resolve(parse(t, "www.ck"), ResolveOptions{})
	test.AssertNotError(t, err, "decomposing www.ck")
	test.AssertEquals(t, r.RegistrableDomain().String(), "www.ck")
}

// The entire domain may itself be a listed suffix; attaching it to itself
// is then rejected by the value model.
func TestResolveEntireDomainIsSuffix(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "co.uk"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving co.uk")
	test.AssertEquals(t, ps.String(), "co.uk")

	_, err = tree.Resolve(parse(t, "co.uk"), ResolveOptions{})
	test.AssertError(t, err, "co.uk is its own suffix and has no registrable domain")
}

func TestResolveDefaultRule(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "example.zzzinvalid"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving an unlisted TLD")
	test.AssertEquals(t, ps.String(), "zzzinvalid")
	test.Assert(t, !ps.IsKnown(), "a default-rule suffix is unknown")

	ps, err = tree.Suffix(parse(t, "example.zzzinvalid"), ResolveOptions{NoDefaultRule: true})
	test.AssertNotError(t, err, "resolving an unlisted TLD without the default rule")
	test.Assert(t, ps.IsNull(), "expected the null suffix")
}

func TestResolveSections(t *testing.T) {
	tree := buildTree(t)
	d := parse(t, "project.github.io")

	ps, err := tree.Suffix(d, ResolveOptions{})
	test.AssertNotError(t, err, "resolving project.github.io")
	test.AssertEquals(t, ps.String(), "github.io")
	test.Assert(t, ps.IsPrivate(), "expected the deeper PRIVATE match to win")

	ps, err = tree.Suffix(d, ResolveOptions{Sections: ICANNOnly})
	test.AssertNotError(t, err, "resolving project.github.io against ICANN only")
	test.AssertEquals(t, ps.String(), "io")
	test.Assert(t, !ps.IsKnown(), "io is not listed in the test data")

	ps, err = tree.Suffix(d, ResolveOptions{Sections: PrivateOnly})
	test.AssertNotError(t, err, "resolving project.github.io against PRIVATE only")
	test.AssertEquals(t, ps.String(), "github.io")
}

// Rules outside any section are ignored.
func TestRulesOutsideSectionsIgnored(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "host.ignored.example"), ResolveOptions{NoDefaultRule: true})
	test.AssertNotError(t, err, "resolving against an out-of-section rule")
	test.Assert(t, ps.IsNull(), "an out-of-section rule must not match")
}

// A Unicode rule is canonicalized to ASCII at build time, so both forms of
// the domain resolve against it.
func TestResolveIDNRule(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "пример.рф"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving пример.рф")
	test.AssertEquals(t, ps.String(), "рф")
	test.Assert(t, ps.IsICANN(), "expected an ICANN match")

	ps, err = tree.Suffix(parse(t, "xn--e1afmkfd.xn--p1ai"), ResolveOptions{})
	test.AssertNotError(t, err, "resolving the ACE form")
	test.AssertEquals(t, ps.String(), "xn--p1ai")
	test.Assert(t, ps.IsICANN(), "expected an ICANN match for the ACE form")
}

func TestResolveAbsoluteDomain(t *testing.T) {
	tree := buildTree(t)

	ps, err := tree.Suffix(parse(t, "example.com."), ResolveOptions{})
	test.AssertNotError(t, err, "resolving an absolute domain")
	test.AssertEquals(t, ps.String(), "com")
}

func TestJSONRoundTrip(t *testing.T) {
	tree := buildTree(t)

	encoded, err := json.Marshal(tree)
	test.AssertNotError(t, err, "marshaling the rule tree")
	test.AssertContains(t, string(encoded), `"ICANN_DOMAINS"`)
	test.AssertContains(t, string(encoded), `"PRIVATE_DOMAINS"`)
	test.AssertContains(t, string(encoded), `"!"`)

	var decoded RuleTree
	err = json.Unmarshal(encoded, &decoded)
	test.AssertNotError(t, err, "unmarshaling the rule tree")

	for _, host := range []string{"www.example.co.uk", "www.ck", "www.foo.ck", "project.github.io"} {
		want, err := tree.Suffix(parse(t, host), ResolveOptions{})
		test.AssertNotError(t, err, "resolving "+host+" against the original tree")
		got, err := decoded.Suffix(parse(t, host), ResolveOptions{})
		test.AssertNotError(t, err, "resolving "+host+" against the decoded tree")
		test.AssertEquals(t, got.String(), want.String())
		test.AssertEquals(t, got.Section(), want.Section())
	}
}

func TestJSONMissingSection(t *testing.T) {
	var tree RuleTree
	err := json.Unmarshal([]byte(`{"ICANN_DOMAINS":{}}`), &tree)
	test.AssertError(t, err, "a serialized tree without PRIVATE_DOMAINS must not decode")
}
