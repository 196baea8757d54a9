package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter formats output as JSON with optional pretty printing.
type JSONFormatter struct {
	indent string
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{indent: "  "}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Supports reports whether the formatter can handle the data type.
// JSON handles anything marshalable.
func (f *JSONFormatter) Supports(data interface{}) bool {
	return true
}

// Format formats the data as JSON and writes it to the writer.
func (f *JSONFormatter) Format(w io.Writer, data interface{}, config *FormatConfig) error {
	if config == nil {
		config = NewFormatConfig()
	}

	if data == nil {
		_, err := w.Write([]byte("null\n"))
		return err
	}

	var output []byte
	var err error
	if config.Pretty && !config.Compact {
		output, err = json.MarshalIndent(data, "", f.indent)
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := w.Write(output); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// SetIndent sets the indentation string for pretty printing.
func (f *JSONFormatter) SetIndent(indent string) *JSONFormatter {
	f.indent = indent
	return f
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error, config *FormatConfig) error {
	errorOutput := map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	}
	return f.Format(w, errorOutput, config)
}
