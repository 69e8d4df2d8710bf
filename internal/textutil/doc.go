// Package textutil derives export filename stems from document names and
// formats display names for the CLI.
package textutil
