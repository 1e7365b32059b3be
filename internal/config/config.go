package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by pkgup runs in a recipe directory.
type Config struct {
	// RecipeFilename is the name of the recipe file inside the recipe directory.
	RecipeFilename string `yaml:"recipe"`
	// MetadataFilename is the name of the derived metadata file regenerated after patching.
	MetadataFilename string `yaml:"metadata"`
	// SourceFormat is the archive extension of the source tarball.
	SourceFormat string `yaml:"source_format"`
	// Retries is the fetch/verify attempt bound for corrupted downloads.
	Retries int `yaml:"retries"`
	// Timeout bounds a single source download.
	Timeout time.Duration `yaml:"timeout"`
	// MakepkgPath is the executable used to regenerate the metadata file.
	MakepkgPath string `yaml:"makepkg"`
	// LogLevel is the zap level name used when no flag overrides it.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for pkgup settings.
	DefaultConfigFilename = "pkgup-settings.yaml"

	// DefaultRecipeFilename is the recipe file pkgup maintains.
	DefaultRecipeFilename = "PKGBUILD"

	// DefaultMetadataFilename is the derived metadata file regenerated from the recipe.
	DefaultMetadataFilename = ".SRCINFO"

	// DefaultSourceFormat is the only archive format checked for integrity natively.
	DefaultSourceFormat = "tar.gz"

	// DefaultRetries is the fetch/verify attempt bound.
	DefaultRetries = 3

	// DefaultTimeout is the bound for a single source download.
	DefaultTimeout = 15 * time.Minute

	// DefaultMakepkgPath is the metadata generator executable.
	DefaultMakepkgPath = "makepkg"

	// DefaultFilePermissions is the file permission used when saving settings.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadRetries is returned when the retry bound is negative.
	errBadRetries = errors.New("retries must be positive")
	// errBadFilename is returned when a configured filename escapes the recipe directory.
	errBadFilename = errors.New("filename must not contain path separators")
)

// Default returns a configuration filled with default values.
func Default() *Config {
	return &Config{
		RecipeFilename:   DefaultRecipeFilename,
		MetadataFilename: DefaultMetadataFilename,
		SourceFormat:     DefaultSourceFormat,
		Retries:          DefaultRetries,
		Timeout:          DefaultTimeout,
		MakepkgPath:      DefaultMakepkgPath,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: pkgup must work in a bare recipe directory,
// so defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills unset fields with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.RecipeFilename == "" {
		cfg.RecipeFilename = DefaultRecipeFilename
	}

	if cfg.MetadataFilename == "" {
		cfg.MetadataFilename = DefaultMetadataFilename
	}

	for _, name := range []string{cfg.RecipeFilename, cfg.MetadataFilename} {
		if strings.ContainsRune(name, os.PathSeparator) {
			return fmt.Errorf("%s: %w", name, errBadFilename)
		}
	}

	if cfg.SourceFormat == "" {
		cfg.SourceFormat = DefaultSourceFormat
	}

	cfg.SourceFormat = strings.TrimPrefix(cfg.SourceFormat, ".")

	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}

	if cfg.Retries < 0 {
		return errBadRetries
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.MakepkgPath == "" {
		cfg.MakepkgPath = DefaultMakepkgPath
	}

	return nil
}
