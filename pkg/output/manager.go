package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Manager manages output formatting and provides high-level
// formatting methods.
type Manager struct {
	formatters     map[string]Formatter
	defaultFormat  string
	config         *FormatConfig
	templateEngine *TemplateEngine
}

// NewManager creates a new output manager with the default formatters
// registered.
func NewManager() *Manager {
	m := &Manager{
		formatters:     make(map[string]Formatter),
		defaultFormat:  "json",
		config:         NewFormatConfig(),
		templateEngine: NewTemplateEngine(),
	}

	m.RegisterFormatter(NewJSONFormatter())
	m.RegisterFormatter(NewYAMLFormatter())
	m.RegisterFormatter(NewTableFormatter())
	m.RegisterFormatter(NewMarkdownFormatter())

	return m
}

// RegisterFormatter registers a new formatter.
func (m *Manager) RegisterFormatter(formatter Formatter) {
	m.formatters[formatter.Name()] = formatter
}

// GetFormatter returns a formatter by name.
func (m *Manager) GetFormatter(name string) (Formatter, error) {
	formatter, ok := m.formatters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("formatter '%s' not found", name)
	}
	return formatter, nil
}

// SetDefaultFormat sets the default output format.
func (m *Manager) SetDefaultFormat(format string) {
	m.defaultFormat = format
}

// SetConfig sets the format configuration.
func (m *Manager) SetConfig(config *FormatConfig) {
	m.config = config
}

// GetConfig returns the current format configuration.
func (m *Manager) GetConfig() *FormatConfig {
	return m.config
}

// Format formats data using the specified format.
func (m *Manager) Format(w io.Writer, data interface{}, format string) error {
	if format == "" {
		format = m.defaultFormat
	}

	formatter, err := m.GetFormatter(format)
	if err != nil {
		return err
	}

	if !formatter.Supports(data) {
		return fmt.Errorf("formatter '%s' does not support data type %T", format, data)
	}

	return formatter.Format(w, data, m.config)
}

// FormatError formats an error.
func (m *Manager) FormatError(w io.Writer, err error, format string) error {
	if err == nil {
		return nil
	}
	if format == "" {
		format = m.defaultFormat
	}

	formatter, fmtErr := m.GetFormatter(format)
	if fmtErr != nil {
		return fmtErr
	}

	switch f := formatter.(type) {
	case interface {
		FormatError(io.Writer, error, *FormatConfig) error
	}:
		return f.FormatError(w, err, m.config)
	default:
		_, werr := fmt.Fprintf(w, "error: %s\n", err.Error())
		return werr
	}
}

// RenderTemplate renders a summary template with the given data.
func (m *Manager) RenderTemplate(template string, data map[string]interface{}) (string, error) {
	return m.templateEngine.Render(template, data)
}

// IsFormatSupported checks if a format is supported.
func (m *Manager) IsFormatSupported(format string) bool {
	_, ok := m.formatters[strings.ToLower(format)]
	return ok
}

// GetSupportedFormats returns the names of all registered formats.
func (m *Manager) GetSupportedFormats() []string {
	formats := make([]string, 0, len(m.formatters))
	for name := range m.formatters {
		formats = append(formats, name)
	}
	return formats
}

// Print is a convenience method to format and print to stdout.
func (m *Manager) Print(data interface{}, format string) error {
	return m.Format(os.Stdout, data, format)
}

// PrintError is a convenience method to format and print an error to
// stderr.
func (m *Manager) PrintError(err error, format string) error {
	return m.FormatError(os.Stderr, err, format)
}

// DefaultManager is the global default output manager.
var DefaultManager = NewManager()

// Format formats data using the default manager.
func Format(w io.Writer, data interface{}, format string) error {
	return DefaultManager.Format(w, data, format)
}

// Print formats and prints data to stdout using the default manager.
func Print(data interface{}, format string) error {
	return DefaultManager.Print(data, format)
}

// PrintError formats and prints an error to stderr using the default
// manager.
func PrintError(err error, format string) error {
	return DefaultManager.PrintError(err, format)
}
