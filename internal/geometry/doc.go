// Package geometry holds the 2D math the pipeline uses to place artwork:
// offsets, translation, uniform contain-fit scaling, centering, and the adapter
// from top-left-origin rectangles to the host's Y-up convention.
//
// Rect values always use the host convention (Top > Bottom for a positive
// height). Build them with ToHostRect; never negate Y coordinates inline.
package geometry
