// Package srcinfo regenerates the derived metadata document (.SRCINFO) from a
// recipe by shelling out to makepkg. The process boundary is modeled as an
// injected Runner so the generator can be faked in tests.
package srcinfo
