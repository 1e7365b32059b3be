package pkgbuild

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Recipe is a loaded recipe document. The content is kept as raw text and
// mutated by line substitution only, so everything outside the recognized
// fields is preserved byte-for-byte.
type Recipe struct {
	content string
}

// Field names recognized by pkgup.
const (
	FieldName      = "pkgname"
	FieldVersion   = "pkgver"
	FieldRelease   = "pkgrel"
	FieldChecksums = "sha256sums"
	FieldSource    = "source"
	FieldGitName   = "_gitname"
	FieldAuthor    = "_author"
)

// DefaultFileMode is used when writing the recipe back to disk.
const DefaultFileMode os.FileMode = 0o644

// ErrMissingField is returned when a required field is absent from the recipe.
var ErrMissingField = errors.New("field missing from recipe")

// fieldPattern matches the first assignment line of the given field,
// case-insensitively, the way makepkg treats PKGBUILD variables.
func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^` + regexp.QuoteMeta(name) + `=.*$`)
}

// New wraps existing recipe text in a Recipe.
func New(content string) *Recipe {
	return &Recipe{content: content}
}

// Load reads a recipe document from the provided path.
func Load(path string) (*Recipe, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}

	return New(string(contents)), nil
}

// Save writes the recipe document to the provided path.
func (r *Recipe) Save(path string) error {
	if err := os.WriteFile(filepath.Clean(path), []byte(r.content), DefaultFileMode); err != nil {
		return fmt.Errorf("write recipe: %w", err)
	}

	return nil
}

// Content returns the current recipe text.
func (r *Recipe) Content() string {
	return r.content
}

// Field returns the value of the first assignment of the named field.
func (r *Recipe) Field(name string) (string, bool) {
	match := fieldPattern(name).FindString(r.content)
	if match == "" {
		return "", false
	}

	value := match[strings.Index(match, "=")+1:]

	return strings.TrimSpace(value), true
}

// setField rewrites the value of the first assignment of the named field.
// Exactly one line changes; the rest of the document is untouched.
func (r *Recipe) setField(name, value string) error {
	pattern := fieldPattern(name)

	loc := pattern.FindStringIndex(r.content)
	if loc == nil {
		return fmt.Errorf("%s: %w", name, ErrMissingField)
	}

	r.content = r.content[:loc[0]] + name + "=" + value + r.content[loc[1]:]

	return nil
}

// Version returns the current package version.
func (r *Recipe) Version() (string, error) {
	value, ok := r.Field(FieldVersion)
	if !ok {
		return "", fmt.Errorf("%s: %w", FieldVersion, ErrMissingField)
	}

	return value, nil
}

// SetVersion rewrites the package version field.
func (r *Recipe) SetVersion(version string) error {
	return r.setField(FieldVersion, version)
}

// SetRelease rewrites the package release field.
func (r *Recipe) SetRelease(release int) error {
	return r.setField(FieldRelease, strconv.Itoa(release))
}

// SetChecksum rewrites the sha256sums field with the provided digest,
// quoted the way makepkg expects. Patching with the same digest twice
// yields byte-identical output.
func (r *Recipe) SetChecksum(digest string) error {
	return r.setField(FieldChecksums, fmt.Sprintf("('%s')", digest))
}
