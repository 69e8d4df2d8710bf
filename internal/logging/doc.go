// Package logging builds the slog loggers iconforge components share.
//
// Two handlers are available: a console format that hoists the component,
// variant and color space into a readable line prefix, and a JSON format with
// short keys for log shippers. Context helpers tag lines with the run ID and
// the artifact being exported.
package logging
