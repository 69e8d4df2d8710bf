// Package recolor implements the bulk recolor operations applied to a scratch
// document between exports: replace-by-match, force-all, and indexed CMYK
// conversion, plus the policies that decide what happens to colors with no
// palette row.
//
// Every operation here is destructive. Callers must finish all exports that
// depend on the current fill state before calling any of them.
package recolor
