// Package psl builds an in-memory rule tree from the raw Public Suffix
// List text format and resolves label sequences against it.
//
// Rules are stored in an arena of nodes addressed by index rather than a
// tree of pointers; the tree is read-only after construction and safe for
// concurrent readers.
package psl

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/xbojch/domainparser/domain"
	derrors "github.com/xbojch/domainparser/errors"
	"github.com/xbojch/domainparser/idn"
)

const (
	// exceptionMarker prefixes a rule that carves its exact labels out of
	// an otherwise-matching wildcard rule.
	exceptionMarker = "!"
	// wildcardLabel matches any single label in its position.
	wildcardLabel = "*"

	commentToken = "//"
)

var sectionMarker = regexp.MustCompile(`^// ===(BEGIN|END) (ICANN|PRIVATE) DOMAINS===`)

// ruleNode is one node of the rule tree. Children are keyed by canonical
// ASCII label and addressed by arena index.
type ruleNode struct {
	children  map[string]int32
	exception bool
}

// RuleTree holds the parsed Public Suffix List: one rule tree root per
// list section. Rules are inserted rightmost label first, so depth from a
// root corresponds to proximity to the TLD.
type RuleTree struct {
	nodes   []ruleNode
	icann   int32
	private int32
}

func newRuleTree() *RuleTree {
	t := &RuleTree{}
	t.icann = t.newNode()
	t.private = t.newNode()
	return t
}

func (t *RuleTree) newNode() int32 {
	t.nodes = append(t.nodes, ruleNode{})
	return int32(len(t.nodes) - 1)
}

func (t *RuleTree) root(section domain.Section) int32 {
	if section == domain.PrivateSection {
		return t.private
	}
	return t.icann
}

func (t *RuleTree) child(node int32, label string) (int32, bool) {
	idx, ok := t.nodes[node].children[label]
	return idx, ok
}

// NumRules returns the number of rule termini in the tree, counting
// exception rules.
func (t *RuleTree) NumRules() int {
	n := 0
	for _, node := range t.nodes {
		if len(node.children) == 0 || node.exception {
			n++
		}
	}
	// The two roots are not rules even when empty.
	if len(t.nodes[t.icann].children) == 0 {
		n--
	}
	if len(t.nodes[t.private].children) == 0 {
		n--
	}
	return n
}

// NewRuleTreeFromString parses the raw Public Suffix List text format.
func NewRuleTreeFromString(src string) (*RuleTree, error) {
	return NewRuleTree(strings.NewReader(src))
}

// NewRuleTree streams the raw Public Suffix List text format line by line.
// Lines outside a section and comment lines are ignored; a section marker
// switches the active section.
func NewRuleTree(r io.Reader) (*RuleTree, error) {
	t := newRuleTree()

	var section domain.Section
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if m := sectionMarker.FindStringSubmatch(line); m != nil {
			switch {
			case m[1] == "END":
				section = domain.UnknownSection
			case m[2] == "ICANN":
				section = domain.ICANNSection
			default:
				section = domain.PrivateSection
			}
			continue
		}
		if line == "" || strings.Contains(line, commentToken) || section == domain.UnknownSection {
			continue
		}

		err := t.insert(t.root(section), strings.Split(line, "."))
		if err != nil {
			return nil, err
		}
	}
	err := scanner.Err()
	if err != nil {
		return nil, derrors.SourceFormatError("reading public suffix list text: %s", err)
	}
	return t, nil
}

// insert adds one rule, descending one tree level per label from the
// rightmost label. An exception rule terminates at its marked node; any
// labels left of the marker are not part of the rule.
func (t *RuleTree) insert(node int32, labels []string) error {
	if len(labels) == 0 {
		return nil
	}

	last := labels[len(labels)-1]
	exception := strings.HasPrefix(last, exceptionMarker)
	if exception {
		last = strings.TrimPrefix(last, exceptionMarker)
	}

	label := last
	if label != wildcardLabel {
		var err error
		label, err = idn.ToASCII(last, idn.DefaultAsciiFlags)
		if err != nil {
			return derrors.SourceFormatError("canonicalizing rule label %q: %s", last, err)
		}
	}

	idx, ok := t.child(node, label)
	if !ok {
		idx = t.newNode()
		if t.nodes[node].children == nil {
			t.nodes[node].children = make(map[string]int32)
		}
		t.nodes[node].children[label] = idx
	}

	if exception {
		t.nodes[idx].exception = true
		return nil
	}
	return t.insert(idx, labels[:len(labels)-1])
}
