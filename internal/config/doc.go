// Package config loads, normalizes, and validates iconforge configuration data.
//
// It supplies repository defaults (the brand palette, artboard geometry, export
// matrix axes), expands user paths including tilde shortcuts, reads TOML files,
// and honours environment fallbacks such as ICONFORGE_OUTPUT_DIR. The Config
// type centralizes every knob the export driver and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum spellings, and clear validation errors.
package config
