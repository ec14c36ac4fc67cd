package psl

import (
	"encoding/json"
	"fmt"
)

// The serialized rule representation mirrors the node structure: an object
// per node mapping child label to child object, with the "!" key marking
// an exception terminus.
const (
	jsonKeyICANN   = "ICANN_DOMAINS"
	jsonKeyPrivate = "PRIVATE_DOMAINS"
	jsonKeyBang    = "!"
)

// MarshalJSON implements json.Marshaler.
func (t *RuleTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		jsonKeyICANN:   t.encode(t.icann),
		jsonKeyPrivate: t.encode(t.private),
	})
}

func (t *RuleTree) encode(node int32) map[string]any {
	out := make(map[string]any, len(t.nodes[node].children)+1)
	if t.nodes[node].exception {
		out[jsonKeyBang] = map[string]any{}
	}
	// encoding/json sorts map keys, so the output is deterministic and
	// suitable for digests.
	for label, child := range t.nodes[node].children {
		out[label] = t.encode(child)
	}
	return out
}

// UnmarshalJSON implements json.Unmarshaler. Both top-level section keys
// must be present.
func (t *RuleTree) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}

	fresh := newRuleTree()
	for _, section := range []struct {
		key  string
		root int32
	}{
		{jsonKeyICANN, fresh.icann},
		{jsonKeyPrivate, fresh.private},
	} {
		msg, ok := raw[section.key]
		if !ok {
			return fmt.Errorf("serialized rule tree is missing the %q key", section.key)
		}
		err = fresh.decode(section.root, msg)
		if err != nil {
			return err
		}
	}

	*t = *fresh
	return nil
}

func (t *RuleTree) decode(node int32, msg json.RawMessage) error {
	var children map[string]json.RawMessage
	err := json.Unmarshal(msg, &children)
	if err != nil {
		return err
	}
	for label, childMsg := range children {
		if label == jsonKeyBang {
			t.nodes[node].exception = true
			continue
		}
		idx := t.newNode()
		if t.nodes[node].children == nil {
			t.nodes[node].children = make(map[string]int32)
		}
		t.nodes[node].children[label] = idx
		err = t.decode(idx, childMsg)
		if err != nil {
			return err
		}
	}
	return nil
}
