// Package canvas is the in-process vector document engine behind
// scenegraph.Service.
//
// Source documents are TOML files holding artboards and a tree of filled
// paths, groups, and text frames. Coordinates in files use the page
// convention (origin top-left, Y down); in memory everything is held in the
// host convention (Y up) and converted once at load and save.
//
// Exports clip to one artboard. SVG and EPS are written directly; PNG and
// JPEG are rasterized from the SVG rendition with oksvg and rasterx. Text is
// laid out from OpenType outlines, falling back to the Go Regular face when a
// requested font is not installed.
package canvas
