package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"spinefetch/internal/logging"
	"spinefetch/internal/services"
)

// DefaultBrand is the synthetic brand (and skin) every brand view contains.
const DefaultBrand = "默认"

const lockRetryDelay = 50 * time.Millisecond

// Manifest file names inside the resource directory.
const (
	SavesFile      = "saves.json"
	UserSavesFile  = "user_saves.json"
	BrandsFile     = "brands.json"
	UserBrandsFile = "user_brands.json"
)

// Config wires an Engine to its resource directory.
type Config struct {
	ResourceDir string
	Priority    Priority
	Logger      *slog.Logger
}

// Engine serves merged manifest views and persists user overrides.
type Engine struct {
	dir    string
	logger *slog.Logger

	mu         sync.RWMutex
	priority   Priority
	combined   Tree
	brandSkins Tree
	brands     []string
}

// NewEngine builds an engine and loads all views.
func NewEngine(cfg Config) *Engine {
	dir := cfg.ResourceDir
	if dir == "" {
		dir = "resource"
	}
	e := &Engine{
		dir:      dir,
		logger:   logging.NewComponentLogger(cfg.Logger, "manifest"),
		priority: cfg.Priority,
	}
	e.Reload()
	return e
}

// Path returns the location of one of the manifest files.
func (e *Engine) Path(name string) string {
	return filepath.Join(e.dir, name)
}

// Priority returns the live merge priority.
func (e *Engine) Priority() Priority {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.priority
}

// SetPriority changes the merge priority. The cached views are rebuilt and
// later saves use the new value.
func (e *Engine) SetPriority(p Priority) {
	e.mu.Lock()
	e.priority = p
	e.mu.Unlock()
	e.Reload()
}

// Combined returns a copy of saves merged with user_saves.
func (e *Engine) Combined() Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.combined.Clone()
}

// BrandSkins returns a copy of the brand to skin-list map.
func (e *Engine) BrandSkins() Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.brandSkins.Clone()
}

// Brands returns the default brand followed by every other brand, sorted.
func (e *Engine) Brands() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.brands)
}

// Reload rereads all four files and rebuilds the views.
func (e *Engine) Reload() {
	priority := e.Priority()
	saves := Load(e.Path(SavesFile), e.logger)
	userSaves := Load(e.Path(UserSavesFile), e.logger)
	brands := Load(e.Path(BrandsFile), e.logger)
	userBrands := Load(e.Path(UserBrandsFile), e.logger)

	combined := Merge(saves, userSaves, priority)
	brandSkins := Merge(brands, userBrands, priority)
	if _, ok := brandSkins[DefaultBrand]; !ok {
		brandSkins[DefaultBrand] = List{DefaultBrand}
	}
	names := []string{DefaultBrand}
	for _, name := range sortedKeys(brandSkins) {
		if name != DefaultBrand {
			names = append(names, name)
		}
	}

	e.mu.Lock()
	e.combined = combined
	e.brandSkins = brandSkins
	e.brands = names
	e.mu.Unlock()
}

// SaveUserSaves merges data into user_saves.json. See SaveUser.
func (e *Engine) SaveUserSaves(ctx context.Context, data Tree, overwrite bool) ([]Conflict, error) {
	return e.SaveUser(ctx, UserSavesFile, data, overwrite)
}

// SaveUserBrands merges data into user_brands.json. See SaveUser.
func (e *Engine) SaveUserBrands(ctx context.Context, data Tree, overwrite bool) ([]Conflict, error) {
	return e.SaveUser(ctx, UserBrandsFile, data, overwrite)
}

// SaveUser merges data into the named user file. When data collides with
// existing entries and overwrite is false, the conflicts are returned and
// nothing is written; a non-empty result always means the file is unchanged.
// With overwrite the user data wins, otherwise the engine's current priority
// applies. After a write all views are reloaded.
func (e *Engine) SaveUser(ctx context.Context, name string, data Tree, overwrite bool) ([]Conflict, error) {
	if name != UserSavesFile && name != UserBrandsFile {
		return nil, services.Wrap(services.ErrValidation, "manifest", "save", fmt.Sprintf("%s is not a user manifest", name), nil)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "manifest", "mkdir", e.dir, err)
	}
	path := e.Path(name)
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "manifest", "lock", path, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrStorage, "manifest", "lock", path+" is held by another process", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("failed to release manifest lock", logging.String("path", path), logging.Error(err))
		}
	}()

	current, err := ReadFile(path)
	if err != nil {
		// same fallback as Load
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "user manifest unreadable; starting fresh", "manifest_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous user entries are replaced"))
		current = Tree{}
	}

	conflicts := FindConflicts(current, data)
	if len(conflicts) > 0 && !overwrite {
		e.logger.Info("user manifest save blocked by conflicts",
			logging.String("path", path),
			logging.Int("conflicts", len(conflicts)))
		return conflicts, nil
	}

	priority := e.Priority()
	if overwrite {
		priority = PriorityUser
	}
	merged := Merge(current, data, priority)
	if err := WriteFile(path, merged); err != nil {
		return nil, err
	}
	e.logger.Info("user manifest saved",
		logging.String("path", path),
		logging.String("priority", priority.String()),
		logging.Int("overwritten", len(conflicts)))

	e.Reload()
	return nil, nil
}

func sortedKeys(n Node) []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
