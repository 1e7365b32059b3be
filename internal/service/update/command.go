package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/pkgup/pkgup/internal/checksum"
	"github.com/pkgup/pkgup/internal/config"
	"github.com/pkgup/pkgup/internal/fetch"
	"github.com/pkgup/pkgup/internal/integrity"
	"github.com/pkgup/pkgup/internal/logger"
	"github.com/pkgup/pkgup/internal/pkgbuild"
	"github.com/pkgup/pkgup/internal/progress"
	"github.com/pkgup/pkgup/internal/srcinfo"
)

var (
	// ErrCorruptDownload is returned when the artifact fails its integrity
	// check on every attempt within the retry budget.
	ErrCorruptDownload = errors.New("downloaded archive is corrupt after all attempts")

	// errAlreadyRunning indicates another pkgup run holds the recipe directory.
	errAlreadyRunning = errors.New("another pkgup run is active in this directory")
	// errEmptyVersion indicates no target version was provided.
	errEmptyVersion = errors.New("target version must not be empty")
	// errBadRelease indicates a non-positive explicit release number.
	errBadRelease = errors.New("release number must be positive")
)

// Options are inputs accepted by the update entry point.
type Options struct {
	// Dir is the recipe directory (default current directory).
	Dir string
	// Version is the target package version.
	Version string
	// Release is the explicit target release number; zero means
	// "reset to 1", the default on a version bump.
	Release int
	// SkipChecks disables the archive integrity check.
	SkipChecks bool
	// Format overrides the configured source archive extension.
	Format string
	// Retries overrides the configured fetch/verify attempt bound.
	Retries int
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured zap level name.
	LogLevel string
	// Reporter receives download progress. Nil selects the interactive
	// console reporter on stderr.
	Reporter progress.Reporter
	// MetadataRunner executes the metadata generator. Nil selects the
	// real makepkg process; tests substitute a fake.
	MetadataRunner srcinfo.Runner
}

// runner holds the state and helpers for a single recipe update.
// It is intentionally unexported, call Run(ctx, Options) from callers.
type runner struct {
	cfg        *config.Config
	opts       *Options
	dir        string
	recipePath string
	recipe     *pkgbuild.Recipe
	reporter   progress.Reporter
	generator  *srcinfo.Generator

	// download and verify are swappable so the fetch-verify-retry loop
	// can be exercised without a network or real archives.
	download func(ctx context.Context, url, dest string) error
	verify   func(path string) error

	markerPath string
	artifact   string
}

// Run executes the recipe update pipeline and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "pkgup")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Recipe update failed", "error", err)
		return err
	}

	logger.Info(ctx, "Recipe update completed")

	return nil
}

// newRunner validates inputs, takes the directory marker and loads
// configuration and the recipe document.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if opts.Version == "" {
		return nil, errEmptyVersion
	}

	if opts.Release < 0 {
		return nil, errBadRelease
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	r := &runner{
		opts:       opts,
		dir:        dir,
		markerPath: filepath.Join(dir, MarkerFilename),
	}

	if IsRunningNow(ctx, dir) {
		return nil, errAlreadyRunning
	}

	marker, err := os.Create(r.markerPath)
	if err != nil {
		return nil, fmt.Errorf("create run marker: %w", err)
	}

	if err = marker.Close(); err != nil {
		return nil, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(dir, config.DefaultConfigFilename)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if opts.Format != "" {
		cfg.SourceFormat = opts.Format
	}

	if opts.Retries > 0 {
		cfg.Retries = opts.Retries
	}

	applyLogLevel(ctx, opts.LogLevel, cfg.LogLevel)

	r.cfg = cfg
	r.recipePath = filepath.Join(dir, cfg.RecipeFilename)

	r.recipe, err = pkgbuild.Load(r.recipePath)
	if err != nil {
		return nil, err
	}

	r.reporter = opts.Reporter
	if r.reporter == nil {
		r.reporter = progress.NewConsole(os.Stderr, "downloading")
	}

	fetcher := fetch.New(cfg.Timeout)
	r.download = func(ctx context.Context, url, dest string) error {
		return fetcher.Download(ctx, url, dest, r.reporter)
	}
	r.verify = integrity.CheckGzip

	r.generator = srcinfo.NewGenerator(cfg.MakepkgPath, cfg.MetadataFilename)
	if opts.MetadataRunner != nil {
		r.generator.Runner = opts.MetadataRunner
	}

	return r, nil
}

// run executes the pipeline for this runner instance:
//  1. Bump version and release fields.
//  2. Resolve the source URL from the recipe template.
//  3. Fetch and verify the archive, retrying on corruption.
//  4. Checksum the verified artifact.
//  5. Patch the recipe and save it.
//  6. Regenerate the derived metadata file.
func (r *runner) run(ctx context.Context) error {
	if err := r.bumpVersionFields(ctx); err != nil {
		return err
	}

	source, err := r.recipe.ResolveSource(ctx, r.opts.Version, r.cfg.SourceFormat)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Resolved source", "url", source.URL, "file", source.Filename)

	r.artifact = filepath.Join(r.dir, source.Filename)

	if err = r.fetchVerified(ctx, source.URL, source.Filename); err != nil {
		return err
	}

	digest, err := checksum.FileSHA256(r.artifact)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Checksum computed", "sha256", digest)

	if err = r.recipe.SetChecksum(digest); err != nil {
		return err
	}

	if err = r.recipe.Save(r.recipePath); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Recipe updated", "path", r.recipePath)

	// The recipe edits above stay applied even if this fails.
	if err = r.generator.Regenerate(ctx, r.dir); err != nil {
		return err
	}

	// Transient artifact is only kept for diagnosis on failure.
	if err = os.Remove(r.artifact); err != nil {
		logger.WarnKV(ctx, "Could not remove downloaded artifact", "path", r.artifact, "error", err)
	}

	return nil
}

// bumpVersionFields rewrites pkgver and pkgrel in the recipe text.
// The release resets to 1 on a version bump unless explicitly overridden.
func (r *runner) bumpVersionFields(ctx context.Context) error {
	current, err := r.recipe.Version()
	if err != nil {
		return err
	}

	warnOnDowngrade(ctx, current, r.opts.Version)

	release := r.opts.Release
	if release == 0 {
		release = 1
	}

	if err = r.recipe.SetVersion(r.opts.Version); err != nil {
		return err
	}

	if err = r.recipe.SetRelease(release); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Version fields bumped",
		"from", current, "to", r.opts.Version, "release", release)

	return nil
}

// fetchVerified downloads the artifact and validates its container format,
// deleting and re-fetching a corrupted download up to the retry bound.
// Fetch errors are fatal immediately, only corruption is retried.
func (r *runner) fetchVerified(ctx context.Context, url, filename string) error {
	checkable := integrity.Checkable(filename) && !r.opts.SkipChecks
	if !checkable {
		logger.Info(ctx, "Skipping archive integrity check")
		return r.download(ctx, url, r.artifact)
	}

	for attempt := 1; attempt <= r.cfg.Retries; attempt++ {
		if err := r.download(ctx, url, r.artifact); err != nil {
			return err
		}

		err := r.verify(r.artifact)
		if err == nil {
			logger.Debug(ctx, "Archive integrity verified")
			return nil
		}

		logger.WarnKV(ctx, "Archive is broken, re-downloading",
			"attempt", attempt, "error", err)

		if err = os.Remove(r.artifact); err != nil {
			return fmt.Errorf("remove corrupt artifact: %w", err)
		}
	}

	return fmt.Errorf("%d attempts: %w", r.cfg.Retries, ErrCorruptDownload)
}

// applyLogLevel sets the global log level, the CLI flag winning over the
// settings file.
func applyLogLevel(ctx context.Context, flagLevel, configLevel string) {
	name := flagLevel
	if name == "" {
		name = configLevel
	}

	if name == "" {
		return
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, keeping current", "level", name)
		return
	}

	logger.SetLevel(level)
}

// warnOnDowngrade flags a target version lower than the current one. Recipe
// versions are not guaranteed to be semver, so unparsable values are ignored.
func warnOnDowngrade(ctx context.Context, current, target string) {
	currentVersion, err := semver.NewVersion(current)
	if err != nil {
		return
	}

	targetVersion, err := semver.NewVersion(target)
	if err != nil {
		return
	}

	if targetVersion.LessThan(currentVersion) {
		logger.WarnKV(ctx, "Target version is lower than the current one",
			"current", current, "target", target)
	}
}

// cleanup removes the run marker. The downloaded artifact is deliberately
// left behind on failure for diagnosis.
func (r *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(r.markerPath); err == nil {
		if err = os.Remove(r.markerPath); err != nil {
			logger.WarnKV(ctx, "Could not remove run marker", "path", r.markerPath, "error", err)
		}
	}
}
