// Package manifest handles garnet.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/garnet/compiler"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "garnet.toml"

// Manifest represents a garnet.toml project configuration.
type Manifest struct {
	Project  Project        `toml:"project"`
	Source   Source         `toml:"source"`
	Compiler CompilerConfig `toml:"compiler"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`

	// Dir is the directory containing the garnet.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where AST documents live.
type Source struct {
	Dirs []string `toml:"dirs"`
}

// CompilerConfig sets compile defaults.
type CompilerConfig struct {
	File string `toml:"file"` // diagnostic file name for units without one
	Mode string `toml:"mode"` // script, eval, or snippet
}

// CacheConfig configures the persistent compiled-unit cache.
type CacheConfig struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// ServerConfig configures the compile service.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no garnet.toml exists.
func Default() *Manifest {
	m := &Manifest{Cache: CacheConfig{Enabled: true}}
	m.applyDefaults()
	return m
}

// Load parses a garnet.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := &Manifest{Cache: CacheConfig{Enabled: true}}
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if _, ok := compiler.ParseContainerKind(m.Compiler.Mode); !ok {
		return nil, fmt.Errorf("%s: compiler.mode %q is not script, eval, or snippet", path, m.Compiler.Mode)
	}
	if m.Log.Verbosity < 0 {
		return nil, fmt.Errorf("%s: log.verbosity must not be negative", path)
	}
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"ast"}
	}
	if m.Compiler.File == "" {
		m.Compiler.File = "(garnet)"
	}
	if m.Compiler.Mode == "" {
		m.Compiler.Mode = "script"
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".garnet", "cache.db")
	}
	if m.Server.Addr == "" {
		m.Server.Addr = ":4567"
	}
}

// FindAndLoad walks up from startDir to find a garnet.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ContainerKind returns the configured compile mode.
func (m *Manifest) ContainerKind() compiler.ContainerKind {
	kind, ok := compiler.ParseContainerKind(m.Compiler.Mode)
	if !ok {
		return compiler.ScriptContainer
	}
	return kind
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, m.resolve(d))
	}
	return paths
}

// SourceFiles lists the .yaml and .yml documents in the source directories,
// sorted. Missing directories are skipped.
func (m *Manifest) SourceFiles() ([]string, error) {
	var files []string
	for _, dir := range m.SourceDirPaths() {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == dir {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch filepath.Ext(path) {
			case ".yaml", ".yml":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot list %s: %w", dir, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// CachePath returns the absolute path of the unit cache database.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Cache.Path)
}

// LogFile returns the absolute log file path, or "" to log to stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	return m.resolve(m.Log.File)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
