package pkgbuild

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkgup/pkgup/internal/logger"
)

// SourceInfo is the resolved download location of the source archive.
type SourceInfo struct {
	// URL is the fully expanded download URL.
	URL string
	// Filename is the local name of the downloaded artifact.
	Filename string
}

// ResolveSource expands the recipe's source template against the target
// version and returns the download URL together with the local artifact name.
//
// The template may reference $pkgname, $pkgver, $_gitname and $_author.
// A missing _gitname falls back to pkgname; a missing _author expands to
// nothing. A leading "filename::" rename prefix is stripped.
func (r *Recipe) ResolveSource(ctx context.Context, version, format string) (*SourceInfo, error) {
	pkgname, ok := r.Field(FieldName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", FieldName, ErrMissingField)
	}

	gitname, ok := r.Field(FieldGitName)
	if !ok {
		logger.Infof(ctx, "%s not set, using %s instead", FieldGitName, FieldName)

		gitname = pkgname
	}

	author, ok := r.Field(FieldAuthor)
	if !ok {
		logger.Debugf(ctx, "%s not set, only matters when $%s is used in the source template",
			FieldAuthor, FieldAuthor)
	}

	template, ok := r.Field(FieldSource)
	if !ok {
		return nil, fmt.Errorf("%s: %w", FieldSource, ErrMissingField)
	}

	filename := fmt.Sprintf("%s-v%s.%s", gitname, version, format)

	expander := strings.NewReplacer(
		"$_author", author,
		"$_gitname", gitname,
		"$pkgver", version,
		"$pkgname", pkgname,
	)
	resolved := expander.Replace(template)

	// Drop the array quoting around the single source entry.
	resolved = strings.Trim(resolved, "()'\" \t")
	// Drop an explicit download rename, the URL after it is what we fetch.
	resolved = strings.TrimPrefix(resolved, filename+"::")

	if resolved == "" {
		return nil, fmt.Errorf("%s resolved to an empty URL: %w", FieldSource, ErrMissingField)
	}

	return &SourceInfo{URL: resolved, Filename: filename}, nil
}
