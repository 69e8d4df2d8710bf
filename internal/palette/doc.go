// Package palette matches colors against the brand palette: an ordered table
// pairing each approved RGB color with its CMYK equivalent.
//
// Matching is tolerance based. A color matches a row when every channel is
// within one unit of that row, which absorbs the float noise a color model
// round trip introduces; it is not a perceptual distance. Rows are index
// stable for a whole run, and role markers (violet, gray, white, text) refer
// to rows by index.
package palette
