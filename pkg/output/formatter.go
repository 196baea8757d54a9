// Package output renders schemas, reports, and bundles in the formats
// the CLI exposes.
//
// # Formats
//
//   - json and yaml serialize the data verbatim
//   - table renders summary tables for humans via pterm
//   - markdown renders a schema as a reference document
//
// A Manager holds the formatter registry and picks the right one for
// the requested format.
package output

import "io"

// Formatter is the interface all output formatters implement.
type Formatter interface {
	// Format renders the given data to the writer.
	Format(w io.Writer, data interface{}, config *FormatConfig) error

	// Name returns the format name (e.g. "json", "table").
	Name() string

	// Supports reports whether the formatter can handle the data type.
	Supports(data interface{}) bool
}

// FormatConfig contains configuration options for formatting output.
type FormatConfig struct {
	// Pretty enables pretty-printing (for JSON)
	Pretty bool

	// Colors enables colored output (for tables)
	Colors bool

	// Compact reduces whitespace in output
	Compact bool

	// ShowHeaders controls header display (for tables)
	ShowHeaders bool

	// MaxWidth is the maximum cell width before truncation (for tables)
	MaxWidth int
}

// NewFormatConfig creates a FormatConfig with sensible defaults.
func NewFormatConfig() *FormatConfig {
	return &FormatConfig{
		Pretty:      true,
		Colors:      true,
		ShowHeaders: true,
		MaxWidth:    60,
	}
}

// WithPretty sets the pretty-printing option.
func (c *FormatConfig) WithPretty(pretty bool) *FormatConfig {
	c.Pretty = pretty
	return c
}

// WithColors sets the colors option.
func (c *FormatConfig) WithColors(colors bool) *FormatConfig {
	c.Colors = colors
	return c
}

// WithCompact sets the compact option.
func (c *FormatConfig) WithCompact(compact bool) *FormatConfig {
	c.Compact = compact
	return c
}

// WithMaxWidth sets the maximum cell width.
func (c *FormatConfig) WithMaxWidth(width int) *FormatConfig {
	c.MaxWidth = width
	return c
}
