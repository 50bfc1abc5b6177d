package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"spinefetch/internal/services"
)

const sampleAgents = `[
	{
		"name": "阿米娅",
		"head": {"默认": "https://cdn.example/head/amiya.png", "精二": "https://cdn.example/head/amiya_2.png"},
		"spine": {
			"默认": {"基建": "https://cdn.example/spine/build_char_002_amiya", "正面": "https://cdn.example/spine/char_002_amiya"},
			"新春": {"正面": "https://cdn.example/spine/char_002_amiya_winter"}
		}
	},
	{
		"name": "能天使",
		"head": {},
		"spine": {}
	}
]`

func TestEnumerateBuildsHeadAndSpineTasks(t *testing.T) {
	agents, err := DecodeAgents(strings.NewReader(sampleAgents))
	if err != nil {
		t.Fatalf("DecodeAgents: %v", err)
	}

	got := Enumerate(agents, Options{SaveRoot: "saves"})
	if len(got) != 5 {
		t.Fatalf("expected 5 tasks, got %d", len(got))
	}

	keys := make([]string, 0, len(got))
	for _, task := range got {
		keys = append(keys, task.String())
	}
	// keys sort by code point: 精 U+7CBE < 默 U+9ED8, 新 U+65B0 < 默, 基 U+57FA < 正 U+6B63
	wantKeys := []string{
		"阿米娅.精二.head",
		"阿米娅.默认.head",
		"阿米娅.新春.正面",
		"阿米娅.默认.基建",
		"阿米娅.默认.正面",
	}
	if diff := cmp.Diff(wantKeys, keys); diff != "" {
		t.Fatalf("task order mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerateHeadTask(t *testing.T) {
	agents := []Agent{{Name: "阿米娅", Head: map[string]string{"默认": "https://cdn.example/h.png"}}}
	got := Enumerate(agents, Options{SaveRoot: "out"})
	want := []Task{{
		Kind:     KindHead,
		Agent:    "阿米娅",
		Skin:     "默认",
		URL:      "https://cdn.example/h.png",
		SavePath: filepath.Join("out", "阿米娅", "head", "默认.png"),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("head task mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"阿米娅", "默认", "head"}, got[0].Key()); diff != "" {
		t.Fatalf("key mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerateSpineGroup(t *testing.T) {
	agents := []Agent{{
		Name:  "agent",
		Spine: map[string]map[string]string{"skin": {"front": "https://cdn.example/spine/xyz123"}},
	}}
	got := Enumerate(agents, Options{SaveRoot: "saves"})
	if len(got) != 1 {
		t.Fatalf("expected one task, got %d", len(got))
	}
	dir := filepath.Join("saves", "agent", "spine", "skin", "front")
	want := Task{
		Kind:     KindSpineGroup,
		Agent:    "agent",
		Skin:     "skin",
		Model:    "front",
		URL:      "https://cdn.example/spine/xyz123",
		Dir:      dir,
		BaseName: "xyz123",
		Files: []File{
			{Ext: ".png", URL: "https://cdn.example/spine/xyz123.png", Path: filepath.Join(dir, "xyz123.png")},
			{Ext: ".skel", URL: "https://cdn.example/spine/xyz123.skel", Path: filepath.Join(dir, "xyz123.skel")},
			{Ext: ".atlas", URL: "https://cdn.example/spine/xyz123.atlas", Path: filepath.Join(dir, "xyz123.atlas")},
		},
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("spine task mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"agent", "skin", "front"}, got[0].Key()); diff != "" {
		t.Fatalf("key mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerateModelFilter(t *testing.T) {
	agents := []Agent{{
		Name: "agent",
		Spine: map[string]map[string]string{
			"skin": {"front": "https://x/a", "back": "https://x/b", "build": "https://x/c"},
		},
	}}
	got := Enumerate(agents, Options{Models: []string{"front", "build"}})
	var models []string
	for _, task := range got {
		models = append(models, task.Model)
	}
	if diff := cmp.Diff([]string{"build", "front"}, models); diff != "" {
		t.Fatalf("filtered models mismatch (-want +got):\n%s", diff)
	}
	if got[0].Dir != filepath.Join("saves", "agent", "spine", "skin", "build") {
		t.Fatalf("default save root not applied: %s", got[0].Dir)
	}
}

func TestEnumerateNormalizesNames(t *testing.T) {
	decomposed := "Ande\u0301"
	agents := []Agent{{Name: decomposed, Head: map[string]string{"v": "https://x/h"}}}
	got := Enumerate(agents, Options{})
	if got[0].Agent != "And\u00e9" {
		t.Fatalf("expected NFC agent name, got %q", got[0].Agent)
	}
}

func TestDecodeAgentsRejectsBadInput(t *testing.T) {
	if _, err := DecodeAgents(strings.NewReader(`{"name": "x"}`)); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-array input, got %v", err)
	}
	if _, err := DecodeAgents(strings.NewReader(`[{"head": {}}]`)); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for nameless record, got %v", err)
	}
}

func TestLoadAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(sampleAgents), 0o644); err != nil {
		t.Fatal(err)
	}
	agents, err := LoadAgents(path)
	if err != nil {
		t.Fatalf("LoadAgents: %v", err)
	}
	if len(agents) != 2 || agents[1].Name != "能天使" {
		t.Fatalf("unexpected agents: %+v", agents)
	}
	if _, err := LoadAgents(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing file, got %v", err)
	}
}
