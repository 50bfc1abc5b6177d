package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Value is a manifest entry: Leaf, List or Node.
type Value interface {
	isValue()
}

// Leaf is a single asset path.
type Leaf string

// List is an ordered list of names, used by the brand manifest.
type List []string

// Node is a nested mapping.
type Node map[string]Value

// Tree is the root of a manifest.
type Tree = Node

func (Leaf) isValue() {}
func (List) isValue() {}
func (Node) isValue() {}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case Node:
		return val.Clone()
	case List:
		return slices.Clone(val)
	default:
		return v
	}
}

// Get walks path and returns the value stored there.
func (n Node) Get(path ...string) (Value, bool) {
	if len(path) == 0 {
		return n, true
	}
	var cur Value = n
	for _, key := range path {
		node, ok := cur.(Node)
		if !ok {
			return nil, false
		}
		cur, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at path, creating intermediate nodes. Non-node values on
// the way are replaced by nodes.
func (n Node) Set(path []string, value Value) {
	if len(path) == 0 {
		return
	}
	cur := n
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(Node)
		if !ok || next == nil {
			next = Node{}
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// Equal reports whether two values are structurally identical.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Leaf:
		bv, ok := b.(Leaf)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		return ok && slices.Equal(av, bv)
	case Node:
		bv, ok := b.(Node)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// Leaves flattens the tree into dotted paths for every non-node value.
func (n Node) Leaves() map[string]Value {
	out := make(map[string]Value)
	collectLeaves(out, "", n)
	return out
}

func collectLeaves(out map[string]Value, prefix string, n Node) {
	for k, v := range n {
		p := joinPath(prefix, k)
		if child, ok := v.(Node); ok {
			collectLeaves(out, p, child)
			continue
		}
		out[p] = v
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// FromAny converts a value produced by encoding/json into a manifest value.
// Strings become leaves, arrays of strings lists and objects nodes; anything
// else is rejected.
func FromAny(raw any) (Value, error) {
	return fromAny(raw, "")
}

func fromAny(raw any, path string) (Value, error) {
	switch v := raw.(type) {
	case string:
		return Leaf(v), nil
	case []any:
		list := make(List, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: expected string, got %s", displayPath(path), i, typeName(item))
			}
			list = append(list, s)
		}
		return list, nil
	case map[string]any:
		node := make(Node, len(v))
		for k, item := range v {
			child, err := fromAny(item, joinPath(path, k))
			if err != nil {
				return nil, err
			}
			node[k] = child
		}
		return node, nil
	default:
		return nil, fmt.Errorf("%s: unsupported %s value", displayPath(path), typeName(raw))
	}
}

// toAny converts a manifest value back into plain JSON types. Empty lists and
// nodes stay [] and {} instead of null.
func toAny(v Value) any {
	switch val := v.(type) {
	case Leaf:
		return string(val)
	case List:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case Node:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = toAny(child)
		}
		return out
	default:
		return nil
	}
}

func displayPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "<root>"
	}
	return path
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
