package manifest

import (
	"slices"
	"strings"
)

// Conflict is the dotted path of a key whose incoming value would replace a
// different existing value.
type Conflict string

// Path splits the conflict back into its key path.
func (c Conflict) Path() []string {
	return strings.Split(string(c), ".")
}

// FindConflicts walks incoming and reports every key that already exists in
// base with a different value, including a node arriving over a leaf or list.
// Node pairs are compared recursively, so keys only one side defines never
// conflict. When the result is empty, merging under either priority keeps
// every leaf of both trees. The result is sorted.
func FindConflicts(base, incoming Tree) []Conflict {
	var out []Conflict
	findConflicts(&out, "", base, incoming)
	slices.Sort(out)
	return out
}

func findConflicts(out *[]Conflict, prefix string, base, incoming Node) {
	for key, value := range incoming {
		existing, ok := base[key]
		if !ok {
			continue
		}
		path := joinPath(prefix, key)
		node, isNode := value.(Node)
		baseNode, baseIsNode := existing.(Node)
		if isNode && baseIsNode {
			findConflicts(out, path, baseNode, node)
			continue
		}
		if Equal(existing, value) {
			continue
		}
		*out = append(*out, Conflict(path))
	}
}
