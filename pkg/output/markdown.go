package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/cmdsift/cmdsift/pkg/schema"
)

// markdownTemplate renders one command schema as a reference document.
const markdownTemplate = `# {{ .Command }}
{{- if .Version }}

Version: {{ .Version }}
{{- end }}
{{- if .Description }}

{{ .Description }}
{{- end }}
{{- if .GlobalFlags }}

## Flags

| Flag | Short | Value | Description |
| --- | --- | --- | --- |
{{- range .GlobalFlags }}
| {{ mdcode .Long }} | {{ mdcode .Short }} | {{ flagValue . }} | {{ mdescape .Description }} |
{{- end }}
{{- end }}
{{- if .Positional }}

## Arguments

| Argument | Required | Value |
| --- | --- | --- |
{{- range .Positional }}
| {{ mdcode .Name }} | {{ .Required }} | {{ string .ValueType.Kind }} |
{{- end }}
{{- end }}
{{- if .Subcommands }}

## Subcommands
{{- range .Subcommands }}

### {{ .Name }}
{{- if .Description }}

{{ mdescape .Description }}
{{- end }}
{{- if .Flags }}

| Flag | Short | Value | Description |
| --- | --- | --- | --- |
{{- range .Flags }}
| {{ mdcode .Long }} | {{ mdcode .Short }} | {{ flagValue . }} | {{ mdescape .Description }} |
{{- end }}
{{- end }}
{{- end }}
{{- end }}
`

// MarkdownFormatter renders a command schema as a markdown document.
type MarkdownFormatter struct {
	tmpl *template.Template
}

// NewMarkdownFormatter creates a new markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	funcs := template.FuncMap{
		"mdcode":    mdCode,
		"mdescape":  mdEscape,
		"flagValue": flagValueCell,
		"string":    func(k schema.ValueKind) string { return string(k) },
	}
	tmpl := template.Must(template.New("schema").Funcs(funcs).Parse(markdownTemplate))
	return &MarkdownFormatter{tmpl: tmpl}
}

// Name returns the formatter name.
func (f *MarkdownFormatter) Name() string {
	return "markdown"
}

// Supports reports whether the formatter can handle the data type.
func (f *MarkdownFormatter) Supports(data interface{}) bool {
	switch data.(type) {
	case *schema.CommandSchema, *schema.Package:
		return true
	}
	return false
}

// Format renders the data as markdown and writes it to the writer.
func (f *MarkdownFormatter) Format(w io.Writer, data interface{}, _ *FormatConfig) error {
	switch v := data.(type) {
	case *schema.CommandSchema:
		if v == nil {
			return fmt.Errorf("cannot format nil schema as markdown")
		}
		return f.renderSchema(w, v)
	case *schema.Package:
		if v == nil {
			return fmt.Errorf("cannot format nil package as markdown")
		}
		for i := range v.Schemas {
			if i > 0 {
				if _, err := w.Write([]byte("\n---\n\n")); err != nil {
					return err
				}
			}
			if err := f.renderSchema(w, &v.Schemas[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported data type for markdown formatting: %T", data)
}

func (f *MarkdownFormatter) renderSchema(w io.Writer, s *schema.CommandSchema) error {
	if err := f.tmpl.Execute(w, s); err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	return nil
}

// mdCode wraps a non-empty value in backticks.
func mdCode(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}

// mdEscape keeps cell text from breaking the table.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// flagValueCell renders the value column for a flag row.
func flagValueCell(f schema.FlagSchema) string {
	if !f.TakesValue {
		return ""
	}
	if f.ValueType.Kind == schema.ValueChoice {
		return "one of: " + strings.Join(f.ValueType.Choices, ", ")
	}
	return string(f.ValueType.Kind)
}
