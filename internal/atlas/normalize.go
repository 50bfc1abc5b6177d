package atlas

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"spinefetch/internal/fileutil"
	"spinefetch/internal/logging"
	"spinefetch/internal/services"
)

// Files holds the three members of a spine group.
type Files struct {
	PNG   string
	Skel  string
	Atlas string
}

// Map returns the paths keyed by extension name, the shape stored in manifests.
func (f Files) Map() map[string]string {
	return map[string]string{"png": f.PNG, "skel": f.Skel, "atlas": f.Atlas}
}

// Normalizer renames spine groups to their declared identity and resizes
// textures to their declared size.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer constructs a normalizer. A nil logger disables logging.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logging.NewComponentLogger(logger, "normalizer")}
}

// Normalize rewrites the atlas texture line, renames the three files to
// {basename}.{ext} in their directory and resizes the texture in place.
// Partially renamed files are left on disk when a step fails.
func (n *Normalizer) Normalize(ctx context.Context, in Files) (Files, Descriptor, error) {
	data, err := os.ReadFile(in.Atlas)
	if err != nil {
		return Files{}, Descriptor{}, normalizationError(services.ErrStorage, "read atlas", err)
	}
	desc, err := Parse(string(data))
	if err != nil {
		return Files{}, Descriptor{}, err
	}

	rewritten := rewriteTextureLine(data, desc.Basename+ImageExt)
	if err := fileutil.WriteFileAtomic(in.Atlas, rewritten, 0o644); err != nil {
		return Files{}, Descriptor{}, normalizationError(services.ErrStorage, "rewrite atlas", err)
	}

	if err := ctx.Err(); err != nil {
		return Files{}, Descriptor{}, err
	}

	out := Files{
		PNG:   targetPath(in.PNG, desc.Basename, ".png"),
		Skel:  targetPath(in.Skel, desc.Basename, ".skel"),
		Atlas: targetPath(in.Atlas, desc.Basename, ".atlas"),
	}
	for _, move := range [][2]string{{in.PNG, out.PNG}, {in.Skel, out.Skel}, {in.Atlas, out.Atlas}} {
		if err := fileutil.MoveFile(move[0], move[1]); err != nil {
			return Files{}, Descriptor{}, normalizationError(services.ErrStorage, "rename", err)
		}
	}

	resized, err := resizeTexture(out.PNG, desc.Width, desc.Height)
	if err != nil {
		return Files{}, Descriptor{}, err
	}

	logging.WithContext(ctx, n.logger).Debug("spine group normalized",
		logging.String("basename", desc.Basename),
		logging.Int("width", desc.Width),
		logging.Int("height", desc.Height),
		logging.Bool("resized", resized))

	return out, desc, nil
}

func targetPath(current, basename, ext string) string {
	return filepath.Join(filepath.Dir(current), filepath.FromSlash(basename)+ext)
}

// rewriteTextureLine replaces the second line of an atlas, keeping every other
// byte (including line endings) untouched.
func rewriteTextureLine(data []byte, texture string) []byte {
	first := bytes.IndexByte(data, '\n')
	if first < 0 {
		return data
	}
	start := first + 1
	end := len(data)
	if next := bytes.IndexByte(data[start:], '\n'); next >= 0 {
		end = start + next
	}
	lineEnd := ""
	if end > start && data[end-1] == '\r' {
		lineEnd = "\r"
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(texture))
	buf.Write(data[:start])
	buf.WriteString(texture)
	buf.WriteString(lineEnd)
	buf.Write(data[end:])
	return buf.Bytes()
}

// resizeTexture scales the image at path to exactly width x height. It reports
// whether the file was re-encoded.
func resizeTexture(path string, width, height int) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, normalizationError(services.ErrStorage, "open texture", err)
	}
	src, _, err := image.Decode(file)
	file.Close()
	if err != nil {
		return false, normalizationError(services.ErrValidation, "decode texture", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return false, nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return encoder.Encode(w, dst)
	}); err != nil {
		return false, normalizationError(services.ErrStorage, "encode texture", err)
	}
	return true, nil
}

func normalizationError(marker error, operation string, err error) error {
	return services.Wrap(marker, "atlas", operation, "", fmt.Errorf("%w: %w", ErrNormalization, err))
}
