package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindConflictsSingleLeaf(t *testing.T) {
	base := Tree{"a": Node{"b": Node{"c": Leaf("old"), "d": Leaf("same")}}, "z": Leaf("z")}
	incoming := Tree{"a": Node{"b": Node{"c": Leaf("new"), "d": Leaf("same"), "e": Leaf("added")}}}

	got := FindConflicts(base, incoming)
	if diff := cmp.Diff([]Conflict{"a.b.c"}, got); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got[0].Path()); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestFindConflictsShapes(t *testing.T) {
	base := Tree{
		"leafOverNode": Node{"x": Leaf("1")},
		"nodeOverLeaf": Leaf("flat"),
		"list":         List{"a", "b"},
		"sameList":     List{"a"},
	}
	incoming := Tree{
		"leafOverNode": Leaf("flat"),
		"nodeOverLeaf": Node{"x": Leaf("1")},
		"list":         List{"a"},
		"sameList":     List{"a"},
		"fresh":        Leaf("new"),
	}

	got := FindConflicts(base, incoming)
	want := []Conflict{"leafOverNode", "list", "nodeOverLeaf"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
}

func TestFindConflictsSorted(t *testing.T) {
	base := Tree{"b": Leaf("1"), "a": Node{"z": Leaf("1"), "y": Leaf("1")}}
	incoming := Tree{"b": Leaf("2"), "a": Node{"z": Leaf("2"), "y": Leaf("2")}}
	want := []Conflict{"a.y", "a.z", "b"}
	if diff := cmp.Diff(want, FindConflicts(base, incoming)); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
}

func TestFindConflictsEmpty(t *testing.T) {
	if got := FindConflicts(Tree{}, vendorTree()); len(got) != 0 {
		t.Fatalf("expected none against empty base, got %v", got)
	}
	if got := FindConflicts(vendorTree(), vendorTree()); len(got) != 0 {
		t.Fatalf("identical trees should not conflict, got %v", got)
	}
}

func TestFindConflictsKeepsMixedShapeUnion(t *testing.T) {
	base := Tree{"A": Leaf("old"), "B": Node{"x": Leaf("1")}}
	incoming := Tree{"A": Node{"x": Leaf("user-value")}, "B": Node{"y": Leaf("2")}}

	if diff := cmp.Diff([]Conflict{"A"}, FindConflicts(base, incoming)); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}

	resolved := Tree{"A": Leaf("old"), "B": Node{"y": Leaf("2")}}
	if got := FindConflicts(base, resolved); len(got) != 0 {
		t.Fatalf("expected no conflicts, got %v", got)
	}
	for _, priority := range []Priority{PriorityVendor, PriorityUser} {
		merged := Merge(base, resolved, priority)
		want := Tree{"A": Leaf("old"), "B": Node{"x": Leaf("1"), "y": Leaf("2")}}
		if diff := cmp.Diff(want, merged); diff != "" {
			t.Fatalf("%s merge lost leaves (-want +got):\n%s", priority, diff)
		}
	}
}
