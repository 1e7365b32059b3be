// Package pkgbuild edits recipe documents (PKGBUILDs) by line substitution.
//
// No shell parsing is attempted: the recognized key=value assignments are
// rewritten in place and every other byte of the document is preserved.
package pkgbuild
