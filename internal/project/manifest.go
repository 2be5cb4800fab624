package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// SourceExt is the extension of lumen scripts.
const SourceExt = ".lm"

// Manifest is a parsed lumen.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest tables.
type Config struct {
	Package PackageConfig `toml:"package"`
	Compile CompileConfig `toml:"compile"`
	Run     RunConfig     `toml:"run"`
}

type PackageConfig struct {
	Name string `toml:"name"`
	Main string `toml:"main"`
}

type CompileConfig struct {
	FoldConstants bool `toml:"fold_constants"`
	Cache         bool `toml:"cache"`
	Jobs          int  `toml:"jobs"`
}

type RunConfig struct {
	VMTrace      bool `toml:"vm_trace"`
	MaxCallDepth int  `toml:"max_call_depth"`
}

// DefaultConfig is used for keys the manifest leaves out.
func DefaultConfig() Config {
	return Config{
		Compile: CompileConfig{FoldConstants: true, Cache: true},
	}
}

// Load finds and parses the manifest above startDir. ok is false when
// there is none.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadFile(path)
	return m, true, err
}

// LoadFile parses the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: parse TOML: %w", path, err)
	}
	var errs []error
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		errs = append(errs, fmt.Errorf("%s: missing [package].name", path))
	}
	if !meta.IsDefined("package", "main") || strings.TrimSpace(cfg.Package.Main) == "" {
		errs = append(errs, fmt.Errorf("%s: missing [package].main", path))
	}
	if cfg.Compile.Jobs < 0 {
		errs = append(errs, fmt.Errorf("%s: [compile].jobs must not be negative", path))
	}
	if cfg.Run.MaxCallDepth < 0 {
		errs = append(errs, fmt.Errorf("%s: [run].max_call_depth must not be negative", path))
	}
	for _, key := range meta.Undecoded() {
		errs = append(errs, fmt.Errorf("%s: unknown key %s", path, key))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

// MainPath resolves [package].main against the project root.
func (m *Manifest) MainPath() (string, error) {
	main := filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(m.Config.Package.Main)))
	info, err := os.Stat(main)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: [package].main does not exist: %s", m.Path, main)
		}
		return "", fmt.Errorf("%s: stat [package].main: %w", m.Path, err)
	}
	if info.IsDir() || filepath.Ext(main) != SourceExt {
		return "", fmt.Errorf("%s: [package].main must be a %s file", m.Path, SourceExt)
	}
	return main, nil
}
