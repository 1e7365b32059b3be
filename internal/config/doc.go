// Package config defines per-directory pkgup settings and provides helpers to
// load, validate and save them in YAML format.
//
// Every field has a sensible default so the settings file is optional: a bare
// recipe directory with just a PKGBUILD works out of the box.
package config
