package manifest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"spinefetch/internal/services"
)

func vendorTree() Tree {
	return Tree{
		"阿米娅": Node{
			"默认": Node{
				"正面": Node{"png": Leaf("saves/a/front.png"), "skel": Leaf("saves/a/front.skel")},
			},
			"精二": Node{"head": Leaf("saves/a/head/e2.png")},
		},
		"能天使": Node{},
	}
}

func userTree() Tree {
	return Tree{
		"阿米娅": Node{
			"默认": Node{
				"正面": Node{"png": Leaf("user/front.png"), "atlas": Leaf("user/front.atlas")},
			},
		},
		"custom": Node{"skin": Node{"model": Node{"png": Leaf("custom.png")}}},
	}
}

func TestMergeVendorKeepsPrimary(t *testing.T) {
	got := Merge(vendorTree(), userTree(), PriorityVendor)
	front, _ := got.Get("阿米娅", "默认", "正面")
	want := Node{
		"png":   Leaf("saves/a/front.png"),
		"skel":  Leaf("saves/a/front.skel"),
		"atlas": Leaf("user/front.atlas"),
	}
	if diff := cmp.Diff(Value(want), front); diff != "" {
		t.Fatalf("vendor merge mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got.Get("custom", "skin", "model", "png"); !ok {
		t.Fatal("expected user-only agent to be added")
	}
}

func TestMergeUserOverwrites(t *testing.T) {
	got := Merge(vendorTree(), userTree(), PriorityUser)
	png, _ := got.Get("阿米娅", "默认", "正面", "png")
	if png != Leaf("user/front.png") {
		t.Fatalf("expected user value to win, got %v", png)
	}
	skel, _ := got.Get("阿米娅", "默认", "正面", "skel")
	if skel != Leaf("saves/a/front.skel") {
		t.Fatalf("expected vendor-only leaf to survive, got %v", skel)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	primary := vendorTree()
	secondary := userTree()
	merged := Merge(primary, secondary, PriorityUser)
	merged.Set([]string{"阿米娅", "默认", "正面", "png"}, Leaf("changed"))

	if diff := cmp.Diff(vendorTree(), primary); diff != "" {
		t.Fatalf("primary mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(userTree(), secondary); diff != "" {
		t.Fatalf("secondary mutated (-want +got):\n%s", diff)
	}
}

func TestMergeNodeVersusLeaf(t *testing.T) {
	primary := Tree{"a": Leaf("flat"), "b": Node{"x": Leaf("1")}}
	secondary := Tree{"a": Node{"x": Leaf("nested")}, "b": Leaf("flat")}

	vendor := Merge(primary, secondary, PriorityVendor)
	if diff := cmp.Diff(primary, vendor); diff != "" {
		t.Fatalf("vendor priority must keep primary shapes (-want +got):\n%s", diff)
	}

	user := Merge(primary, secondary, PriorityUser)
	if diff := cmp.Diff(secondary, user); diff != "" {
		t.Fatalf("user priority must take secondary shapes (-want +got):\n%s", diff)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	for _, priority := range []Priority{PriorityVendor, PriorityUser} {
		once := Merge(vendorTree(), userTree(), priority)
		twice := Merge(once, userTree(), priority)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("%s: merge not idempotent (-once +twice):\n%s", priority, diff)
		}
	}
}

func TestMergeConflictFreeUnion(t *testing.T) {
	a := Tree{"x": Node{"head": Leaf("x.png")}, "shared": Node{"one": Leaf("1")}}
	b := Tree{"y": Node{"head": Leaf("y.png")}, "shared": Node{"two": Leaf("2")}}
	if conflicts := FindConflicts(a, b); len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", conflicts)
	}

	for _, priority := range []Priority{PriorityVendor, PriorityUser} {
		merged := Merge(a, b, priority)
		want := a.Leaves()
		for k, v := range b.Leaves() {
			want[k] = v
		}
		if diff := cmp.Diff(want, merged.Leaves()); diff != "" {
			t.Fatalf("%s: union mismatch (-want +got):\n%s", priority, diff)
		}
	}
}

func TestMergeNilInputs(t *testing.T) {
	got := Merge(nil, Tree{"a": Leaf("1")}, PriorityVendor)
	if diff := cmp.Diff(Tree{"a": Leaf("1")}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if got := Merge(Tree{"a": Leaf("1")}, nil, PriorityUser); len(got) != 1 {
		t.Fatalf("expected primary copy, got %v", got)
	}
}

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in   string
		want Priority
	}{
		{"vendor", PriorityVendor},
		{" User ", PriorityUser},
		{"仓库", PriorityVendor},
		{"用户", PriorityUser},
		{"", PriorityVendor},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.in)
		if err != nil {
			t.Fatalf("ParsePriority(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePriority(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParsePriority("both"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
