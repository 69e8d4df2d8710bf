// Package composer derives scratch documents for one artboard region and
// lays out artwork in them: cloning with explicit stacking placement,
// landing-zone fitting, the masthead lockup, and the expressive banner.
//
// Scratch documents are scoped resources. Every document returned by a
// Derive call must reach DisposeDocument on every exit path.
package composer
