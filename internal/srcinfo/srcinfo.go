package srcinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkgup/pkgup/internal/logger"
)

// ErrMetadataGeneration is returned when the external generator is missing or
// exits non-zero. By then the recipe edits are already on disk, so the caller
// reports the failure without rolling anything back.
var ErrMetadataGeneration = errors.New("metadata generation failed")

// metadataFileMode is used for the regenerated metadata file.
const metadataFileMode os.FileMode = 0o644

// printSrcinfoArg asks makepkg to emit the metadata document on stdout.
const printSrcinfoArg = "--printsrcinfo"

// Runner executes an external command in a working directory and returns its
// standard output. It is an injection point so tests can substitute a fake
// for the real makepkg binary.
type Runner interface {
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Output implements Runner.
func (ExecRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	return cmd.Output()
}

// Generator regenerates the derived metadata file from the recipe by invoking
// the external generator tool. The metadata document is treated as a pure
// function of the recipe: it is fully rewritten, never patched.
type Generator struct {
	// Runner executes the generator process.
	Runner Runner
	// Makepkg is the generator executable.
	Makepkg string
	// Output is the metadata filename written inside the recipe directory.
	Output string
}

// NewGenerator returns a Generator using the real makepkg executable.
func NewGenerator(makepkg, output string) *Generator {
	return &Generator{
		Runner:  ExecRunner{},
		Makepkg: makepkg,
		Output:  output,
	}
}

// Regenerate runs the generator in the recipe directory and writes its
// standard output verbatim to the metadata file.
func (g *Generator) Regenerate(ctx context.Context, dir string) error {
	output, err := g.Runner.Output(ctx, dir, g.Makepkg, printSrcinfoArg)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %s", ErrMetadataGeneration, g.Makepkg, printSrcinfoArg, err)
	}

	path := filepath.Clean(filepath.Join(dir, g.Output))
	if err = os.WriteFile(path, output, metadataFileMode); err != nil {
		return fmt.Errorf("%w: write %s: %s", ErrMetadataGeneration, g.Output, err)
	}

	logger.InfoKV(ctx, "Metadata file regenerated", "path", path)

	return nil
}
