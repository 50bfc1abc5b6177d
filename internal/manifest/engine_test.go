package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestEngine(t *testing.T, priority Priority) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	return NewEngine(Config{ResourceDir: dir, Priority: priority}), dir
}

func writeTree(t *testing.T, path string, tree Tree) {
	t.Helper()
	if err := WriteFile(path, tree); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}

func TestSaveUserRejectsConflictsThenOverwrites(t *testing.T) {
	engine, dir := newTestEngine(t, PriorityVendor)
	userPath := filepath.Join(dir, UserSavesFile)
	writeTree(t, userPath, Tree{"A": Node{"x": Leaf("vendor-value")}})
	before, err := os.ReadFile(userPath)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	incoming := Tree{"A": Node{"x": Leaf("user-value")}}
	conflicts, err := engine.SaveUserSaves(ctx, incoming, false)
	if err != nil {
		t.Fatalf("SaveUserSaves: %v", err)
	}
	if diff := cmp.Diff([]Conflict{"A.x"}, conflicts); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
	after, err := os.ReadFile(userPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("user file changed despite conflicts")
	}

	conflicts, err = engine.SaveUserSaves(ctx, incoming, true)
	if err != nil {
		t.Fatalf("SaveUserSaves overwrite: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("overwrite should report no blocking conflicts, got %v", conflicts)
	}
	got, err := ReadFile(userPath)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Get("A", "x"); v != Leaf("user-value") {
		t.Fatalf("expected user-value on disk, got %v", v)
	}
	if v, _ := engine.Combined().Get("A", "x"); v != Leaf("user-value") {
		t.Fatalf("combined view not reloaded, got %v", v)
	}
}

func TestSaveUserAddsWithoutConflict(t *testing.T) {
	engine, dir := newTestEngine(t, PriorityVendor)
	writeTree(t, filepath.Join(dir, UserSavesFile), Tree{"A": Node{"x": Leaf("1")}})
	engine.Reload()

	conflicts, err := engine.SaveUserSaves(context.Background(), Tree{"A": Node{"y": Leaf("2")}, "B": Node{}}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("SaveUserSaves = %v, %v", conflicts, err)
	}
	want := Tree{"A": Node{"x": Leaf("1"), "y": Leaf("2")}, "B": Node{}}
	if diff := cmp.Diff(want, engine.Combined()); diff != "" {
		t.Fatalf("combined mismatch (-want +got):\n%s", diff)
	}
}

func TestCombinedFollowsPriority(t *testing.T) {
	engine, dir := newTestEngine(t, PriorityVendor)
	writeTree(t, filepath.Join(dir, SavesFile), Tree{"A": Node{"head": Leaf("vendor.png")}, "V": Node{}})
	writeTree(t, filepath.Join(dir, UserSavesFile), Tree{"A": Node{"head": Leaf("user.png")}, "U": Node{}})
	engine.Reload()

	if v, _ := engine.Combined().Get("A", "head"); v != Leaf("vendor.png") {
		t.Fatalf("vendor priority: got %v", v)
	}
	engine.SetPriority(PriorityUser)
	if engine.Priority() != PriorityUser {
		t.Fatal("priority not updated")
	}
	combined := engine.Combined()
	if v, _ := combined.Get("A", "head"); v != Leaf("user.png") {
		t.Fatalf("user priority: got %v", v)
	}
	for _, key := range []string{"U", "V"} {
		if _, ok := combined[key]; !ok {
			t.Fatalf("expected %s in combined view", key)
		}
	}
}

func TestSaveUserReportsShapeCollisions(t *testing.T) {
	engine, dir := newTestEngine(t, PriorityVendor)
	userPath := filepath.Join(dir, UserSavesFile)
	writeTree(t, userPath, Tree{"A": Leaf("old")})
	before, err := os.ReadFile(userPath)
	if err != nil {
		t.Fatal(err)
	}

	incoming := Tree{"A": Node{"x": Leaf("user-value")}}
	for _, priority := range []Priority{PriorityVendor, PriorityUser} {
		engine.SetPriority(priority)
		conflicts, err := engine.SaveUserSaves(context.Background(), incoming, false)
		if err != nil {
			t.Fatalf("SaveUserSaves under %s: %v", priority, err)
		}
		if diff := cmp.Diff([]Conflict{"A"}, conflicts); diff != "" {
			t.Fatalf("%s conflicts mismatch (-want +got):\n%s", priority, diff)
		}
		after, err := os.ReadFile(userPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(after) != string(before) {
			t.Fatalf("%s: user file changed despite conflicts", priority)
		}
	}

	engine.SetPriority(PriorityVendor)
	if conflicts, err := engine.SaveUserSaves(context.Background(), incoming, true); err != nil || len(conflicts) != 0 {
		t.Fatalf("SaveUserSaves overwrite = %v, %v", conflicts, err)
	}
	got, _ := ReadFile(userPath)
	if diff := cmp.Diff(incoming, got); diff != "" {
		t.Fatalf("overwrite should store the node (-want +got):\n%s", diff)
	}
}

func TestBrandViews(t *testing.T) {
	engine, dir := newTestEngine(t, PriorityVendor)
	if diff := cmp.Diff([]string{DefaultBrand}, engine.Brands()); diff != "" {
		t.Fatalf("empty resource dir brands (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Tree{DefaultBrand: List{DefaultBrand}}, engine.BrandSkins()); diff != "" {
		t.Fatalf("empty resource dir brand skins (-want +got):\n%s", diff)
	}

	writeTree(t, filepath.Join(dir, BrandsFile), Tree{"zeta": List{"z1"}, "alpha": List{"a1"}})
	writeTree(t, filepath.Join(dir, UserBrandsFile), Tree{"mine": List{"m1"}, DefaultBrand: List{"custom"}})
	engine.Reload()

	want := []string{DefaultBrand, "alpha", "mine", "zeta"}
	if diff := cmp.Diff(want, engine.Brands()); diff != "" {
		t.Fatalf("brands mismatch (-want +got):\n%s", diff)
	}
	skins := engine.BrandSkins()
	if diff := cmp.Diff(Value(List{"custom"}), skins[DefaultBrand]); diff != "" {
		t.Fatalf("existing default brand entry should be kept (-want +got):\n%s", diff)
	}
}

func TestViewsAreCopies(t *testing.T) {
	engine, dir := newTestEngine(t, PriorityVendor)
	writeTree(t, filepath.Join(dir, SavesFile), Tree{"A": Node{"head": Leaf("a.png")}})
	engine.Reload()

	view := engine.Combined()
	view.Set([]string{"A", "head"}, Leaf("changed"))
	if v, _ := engine.Combined().Get("A", "head"); v != Leaf("a.png") {
		t.Fatalf("engine state leaked through view, got %v", v)
	}
}

func TestSaveUserRejectsUnknownFile(t *testing.T) {
	engine, _ := newTestEngine(t, PriorityVendor)
	if _, err := engine.SaveUser(context.Background(), SavesFile, Tree{}, false); err == nil {
		t.Fatal("expected error when saving into the vendor manifest")
	}
}
