package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"spinefetch/internal/fileutil"
	"spinefetch/internal/logging"
	"spinefetch/internal/services"
)

const indent = "    "

// Decode reads a manifest from r. The document must be a JSON object whose
// values are strings, string arrays or nested objects.
func Decode(r io.Reader) (Tree, error) {
	var raw any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "decode", "", err)
	}
	if raw == nil {
		return Tree{}, nil
	}
	value, err := FromAny(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "decode", "", err)
	}
	node, ok := value.(Node)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "manifest", "decode",
			fmt.Sprintf("top level must be an object, got %s", typeName(raw)), nil)
	}
	return node, nil
}

// ReadFile loads a manifest from disk. A missing file is an empty tree.
func ReadFile(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Tree{}, nil
		}
		return nil, services.Wrap(services.ErrStorage, "manifest", "read", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Tree{}, nil
	}
	tree, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// Load is ReadFile that never fails: unreadable or malformed manifests are
// logged and treated as empty.
func Load(path string, logger *slog.Logger) Tree {
	tree, err := ReadFile(path)
	if err != nil {
		logging.WarnWithContext(logger, "manifest unreadable; using empty tree", "manifest_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or remove the file"),
			logging.String(logging.FieldImpact, "entries from this file are ignored"))
		return Tree{}
	}
	return tree
}

// Encode writes tree as UTF-8 JSON with four-space indentation and sorted
// keys. HTML characters and non-ASCII text are written unescaped.
func Encode(w io.Writer, tree Tree) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	return enc.Encode(toAny(tree))
}

// Marshal returns the encoded form of tree.
func Marshal(tree Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile atomically replaces path with the encoded tree.
func WriteFile(path string, tree Tree) error {
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(w, tree)
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "manifest", "write", path, err)
	}
	return nil
}
