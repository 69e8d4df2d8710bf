// Package scenegraph defines the capability interfaces the pipeline uses to
// drive a vector document engine: documents, artboards, path items, groups,
// text frames, and export. Package canvas provides the real engine and
// package fake a recording double for tests.
//
// Nodes are handles owned by their document. The pipeline never holds node
// memory beyond one run and never type-switches on engine internals.
package scenegraph
