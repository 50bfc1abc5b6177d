package atlas

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"spinefetch/internal/services"
)

// ImageExt is the texture extension atlas files reference.
const ImageExt = ".png"

const sizePrefix = "size:"

var (
	// ErrMalformed marks atlas content that cannot be parsed. Re-fetching the
	// same bytes cannot fix it, so callers treat it as terminal.
	ErrMalformed = errors.New("malformed atlas")
	// ErrNormalization marks failures while renaming or resizing a spine group.
	ErrNormalization = errors.New("normalization failed")
)

// Descriptor is the canonical identity of a spine group as declared by its atlas.
type Descriptor struct {
	Basename string
	Width    int
	Height   int
}

// Parse extracts the descriptor from atlas text. Line 1 is a header and is
// ignored, line 2 names the texture and line 3 holds "size:<w>,<h>".
func Parse(text string) (Descriptor, error) {
	lines := splitLines(text)
	if len(lines) < 3 {
		return Descriptor{}, malformed(fmt.Sprintf("expected at least 3 lines, got %d", len(lines)))
	}

	filename := strings.TrimSpace(lines[1])
	if !strings.HasSuffix(filename, ImageExt) {
		return Descriptor{}, malformed(fmt.Sprintf("line 2 %q does not name a %s texture", filename, ImageExt))
	}
	stem, _, _ := strings.Cut(filename, ImageExt)
	basename := CanonicalName(stem)
	if basename == "" {
		return Descriptor{}, malformed("texture name is empty")
	}
	if !isRelativeName(basename) {
		return Descriptor{}, malformed(fmt.Sprintf("texture name %q escapes the group directory", basename))
	}

	width, height, err := parseSize(lines[2])
	if err != nil {
		return Descriptor{}, err
	}

	return Descriptor{Basename: basename, Width: width, Height: height}, nil
}

// CanonicalName lower-cases the underscore-separated parts of name up to the
// first purely numeric part; that part and everything after keep their case.
// Backslashes become forward slashes and '#' becomes '_'.
func CanonicalName(name string) string {
	lower := cases.Lower(language.Und)
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if isNumeric(part) {
			break
		}
		parts[i] = lower.String(part)
	}
	joined := strings.Join(parts, "_")
	joined = strings.ReplaceAll(joined, "\\", "/")
	return strings.ReplaceAll(joined, "#", "_")
}

func parseSize(line string) (int, int, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, sizePrefix) {
		return 0, 0, malformed(fmt.Sprintf("line 3 %q is not a size line", trimmed))
	}
	raw := strings.TrimSpace(strings.TrimPrefix(trimmed, sizePrefix))
	fields := strings.Split(raw, ",")
	if len(fields) != 2 {
		return 0, 0, malformed(fmt.Sprintf("invalid size %q", raw))
	}
	width, errW := strconv.Atoi(strings.TrimSpace(fields[0]))
	height, errH := strconv.Atoi(strings.TrimSpace(fields[1]))
	if errW != nil || errH != nil {
		return 0, 0, malformed(fmt.Sprintf("invalid size %q", raw))
	}
	if width <= 0 || height <= 0 {
		return 0, 0, malformed(fmt.Sprintf("size %dx%d must be positive", width, height))
	}
	return width, height, nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isRelativeName(name string) bool {
	if strings.HasPrefix(name, "/") {
		return false
	}
	for _, elem := range strings.Split(path.Clean(name), "/") {
		if elem == ".." {
			return false
		}
	}
	return true
}

func malformed(message string) error {
	return services.Wrap(services.ErrValidation, "atlas", "parse", message, ErrMalformed)
}
