package tasks

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind distinguishes head icons from spine groups.
type Kind int

const (
	KindHead Kind = iota
	KindSpineGroup
)

func (k Kind) String() string {
	switch k {
	case KindHead:
		return "head"
	case KindSpineGroup:
		return "spine"
	default:
		return "unknown"
	}
}

// SpineExtensions lists the files of a spine group in download order.
var SpineExtensions = []string{".png", ".skel", ".atlas"}

// File is one remote file belonging to a task.
type File struct {
	Ext  string
	URL  string
	Path string
}

// Task is a unit of work for the download orchestrator. For head tasks Skin
// holds the icon variant, URL the icon URL and SavePath its destination. For
// spine groups URL is the shared base URL and Files lists the three members
// under Dir, all named after BaseName until the atlas is normalized.
type Task struct {
	Kind     Kind
	Agent    string
	Skin     string
	Model    string
	URL      string
	SavePath string
	Dir      string
	BaseName string
	Files    []File
}

// Key returns the manifest key path the task's result is stored under.
func (t Task) Key() []string {
	if t.Kind == KindHead {
		return []string{t.Agent, t.Skin, "head"}
	}
	return []string{t.Agent, t.Skin, t.Model}
}

// String renders the key path dotted, for logs and ledger records.
func (t Task) String() string {
	return strings.Join(t.Key(), ".")
}

// Options controls enumeration. A non-empty Models list restricts spine
// groups to those model names.
type Options struct {
	SaveRoot string
	Models   []string
}

// Enumerate flattens agents into tasks. Agents keep their input order; head
// variants, skins and models are visited in sorted order so repeated runs
// produce the same task list.
func Enumerate(agents []Agent, opts Options) []Task {
	root := opts.SaveRoot
	if root == "" {
		root = "saves"
	}
	models := make(map[string]struct{}, len(opts.Models))
	for _, m := range opts.Models {
		models[norm.NFC.String(m)] = struct{}{}
	}

	var out []Task
	for _, agent := range agents {
		name := norm.NFC.String(agent.Name)
		for _, variant := range sortedKeys(agent.Head) {
			v := norm.NFC.String(variant)
			out = append(out, Task{
				Kind:     KindHead,
				Agent:    name,
				Skin:     v,
				URL:      agent.Head[variant],
				SavePath: filepath.Join(root, name, "head", v+".png"),
			})
		}
		for _, skin := range sortedKeys(agent.Spine) {
			s := norm.NFC.String(skin)
			group := agent.Spine[skin]
			for _, model := range sortedKeys(group) {
				m := norm.NFC.String(model)
				if len(models) > 0 {
					if _, ok := models[m]; !ok {
						continue
					}
				}
				out = append(out, spineTask(root, name, s, m, group[model]))
			}
		}
	}
	return out
}

func spineTask(root, agent, skin, model, baseURL string) Task {
	dir := filepath.Join(root, agent, "spine", skin, model)
	base := lastSegment(baseURL)
	files := make([]File, 0, len(SpineExtensions))
	for _, ext := range SpineExtensions {
		files = append(files, File{
			Ext:  ext,
			URL:  baseURL + ext,
			Path: filepath.Join(dir, base+ext),
		})
	}
	return Task{
		Kind:     KindSpineGroup,
		Agent:    agent,
		Skin:     skin,
		Model:    model,
		URL:      baseURL,
		Dir:      dir,
		BaseName: base,
		Files:    files,
	}
}

func lastSegment(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return path.Base(strings.TrimRight(trimmed, "/"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
