package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"spinefetch/internal/logging"
	"spinefetch/internal/services"
)

func TestEncodeFormat(t *testing.T) {
	tree := Tree{
		"b":  Node{"head": Leaf("saves/b/head/<1>&.png")},
		"a":  Node{},
		"默认": List{"默认", "x"},
	}
	got, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{
    "a": {},
    "b": {
        "head": "saves/b/head/<1>&.png"
    },
    "默认": [
        "默认",
        "x"
    ]
}
`
	if string(got) != want {
		t.Fatalf("unexpected encoding:\n%s\nwant:\n%s", got, want)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tree := vendorTree()
	data, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(tree, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnsupportedValues(t *testing.T) {
	inputs := []string{
		`[]`,
		`"text"`,
		`{"a": 1}`,
		`{"a": {"b": true}}`,
		`{"a": ["x", 2]}`,
		`{"a": `,
	}
	for _, in := range inputs {
		if _, err := Decode(strings.NewReader(in)); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Decode(%s): expected validation error, got %v", in, err)
		}
	}
}

func TestLoadMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewNop()

	if got := Load(filepath.Join(dir, "missing.json"), logger); len(got) != 0 {
		t.Fatalf("missing file should load empty, got %v", got)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Load(broken, logger); got == nil || len(got) != 0 {
		t.Fatalf("malformed file should load as an empty tree, got %#v", got)
	}
	if _, err := ReadFile(broken); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ReadFile should surface the decode error, got %v", err)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := ReadFile(empty); err != nil || len(got) != 0 {
		t.Fatalf("blank file should read as empty tree, got %v, %v", got, err)
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "saves.json")
	if err := WriteFile(path, vendorTree()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff(vendorTree(), got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSetAndGet(t *testing.T) {
	tree := Tree{"agent": Leaf("flat")}
	tree.Set([]string{"agent", "skin", "model"}, Node{"png": Leaf("p")})
	got, ok := tree.Get("agent", "skin", "model", "png")
	if !ok || got != Leaf("p") {
		t.Fatalf("Get after Set = %v, %v", got, ok)
	}
	if _, ok := tree.Get("agent", "missing"); ok {
		t.Fatal("expected missing path")
	}
	if _, ok := tree.Get("agent", "skin", "model", "png", "deeper"); ok {
		t.Fatal("cannot descend into a leaf")
	}
}
