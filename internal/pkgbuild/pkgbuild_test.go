package pkgbuild

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleRecipe = `# Maintainer: Some One <someone@example.com>
pkgname=hello
_gitname=hello-world
_author=octocat
pkgver=1.0.0
pkgrel=1
pkgdesc="An example package"
arch=('any')
url="https://github.com/octocat/hello-world"
license=('MIT')
source=("$_gitname-v$pkgver.tar.gz::https://github.com/$_author/$_gitname/archive/v$pkgver.tar.gz")
sha256sums=('0000000000000000000000000000000000000000000000000000000000000000')

package() {
	install -Dm755 hello "$pkgdir/usr/bin/hello"
}
`

// TestSetVersionAndRelease verifies both fields are rewritten and every other line survives untouched.
func TestSetVersionAndRelease(t *testing.T) {
	t.Parallel()

	r := New(sampleRecipe)

	require.NoError(t, r.SetVersion("1.1.0"))
	require.NoError(t, r.SetRelease(1))

	got := r.Content()
	require.Contains(t, got, "\npkgver=1.1.0\n")
	require.Contains(t, got, "\npkgrel=1\n")

	// Everything except the two rewritten lines is byte-identical.
	wantLines := strings.Split(sampleRecipe, "\n")
	gotLines := strings.Split(got, "\n")
	require.Len(t, gotLines, len(wantLines))

	for i, line := range wantLines {
		if strings.HasPrefix(line, "pkgver=") || strings.HasPrefix(line, "pkgrel=") {
			continue
		}

		require.Equal(t, line, gotLines[i])
	}

	// The source template still references $pkgver, it is resolved at
	// download time, not rewritten in the document.
	require.Contains(t, got, "archive/v$pkgver.tar.gz")
}

// TestSetVersionMissingField ensures a recipe without the field yields ErrMissingField.
func TestSetVersionMissingField(t *testing.T) {
	t.Parallel()

	r := New("pkgname=hello\n")

	err := r.SetVersion("2.0.0")
	require.ErrorIs(t, err, ErrMissingField)

	err = r.SetRelease(2)
	require.ErrorIs(t, err, ErrMissingField)

	err = r.SetChecksum("abc")
	require.ErrorIs(t, err, ErrMissingField)
}

// TestSetChecksumIdempotent verifies patching twice with the same digest is a no-op the second time.
func TestSetChecksumIdempotent(t *testing.T) {
	t.Parallel()

	const digest = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	r := New(sampleRecipe)

	require.NoError(t, r.SetChecksum(digest))
	once := r.Content()
	require.Contains(t, once, "sha256sums=('"+digest+"')")

	require.NoError(t, r.SetChecksum(digest))
	require.Equal(t, once, r.Content())
}

// TestFieldLookup checks value extraction and case-insensitive field matching.
func TestFieldLookup(t *testing.T) {
	t.Parallel()

	r := New("PKGVER=2.3.4\npkgrel=5\n")

	version, err := r.Version()
	require.NoError(t, err)
	require.Equal(t, "2.3.4", version)

	release, ok := r.Field(FieldRelease)
	require.True(t, ok)
	require.Equal(t, "5", release)

	_, ok = r.Field(FieldGitName)
	require.False(t, ok)
}

// TestLoadSaveRoundtrip ensures the document survives a disk roundtrip unchanged.
func TestLoadSaveRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "PKGBUILD")

	r := New(sampleRecipe)
	require.NoError(t, r.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, sampleRecipe, loaded.Content())
}
