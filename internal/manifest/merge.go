package manifest

import (
	"fmt"
	"strings"

	"spinefetch/internal/services"
)

// Priority selects which side wins when both manifests define a key.
type Priority int

const (
	// PriorityVendor keeps the primary (vendor) value and only adds missing keys.
	PriorityVendor Priority = iota
	// PriorityUser lets the secondary (user) value overwrite.
	PriorityUser
)

func (p Priority) String() string {
	switch p {
	case PriorityUser:
		return "user"
	default:
		return "vendor"
	}
}

// ParsePriority accepts "vendor" and "user" as well as the labels used by
// the resource bundle's settings file, "仓库" and "用户".
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "vendor", "仓库", "":
		return PriorityVendor, nil
	case "user", "用户":
		return PriorityUser, nil
	default:
		return PriorityVendor, services.Wrap(services.ErrConfiguration, "manifest", "parse priority",
			fmt.Sprintf("unknown priority %q (want vendor or user)", raw), nil)
	}
}

// Merge deep-merges secondary into a copy of primary. Where both sides hold
// a node the merge recurses; otherwise the secondary value is written when
// the key is missing from primary, or always under PriorityUser. Neither input
// is modified.
func Merge(primary, secondary Tree, priority Priority) Tree {
	out := primary.Clone()
	mergeInto(out, secondary, priority)
	return out
}

func mergeInto(dst, src Node, priority Priority) {
	for key, incoming := range src {
		existing, ok := dst[key]
		if ok {
			dstNode, dstIsNode := existing.(Node)
			srcNode, srcIsNode := incoming.(Node)
			if dstIsNode && srcIsNode {
				mergeInto(dstNode, srcNode, priority)
				continue
			}
		}
		if !ok || priority == PriorityUser {
			dst[key] = cloneValue(incoming)
		}
	}
}
