// Package services defines shared utilities consumed by the derivation
// pipeline and the scene graph integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, variant names, and color spaces for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures into
//     the pipeline's error kinds (validation, configuration, palette mismatch,
//     variant failure).
//
// Use these helpers when wiring new pipeline stages so operational behaviour
// (error classification, observability) stays uniform across the run.
package services
