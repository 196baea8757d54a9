package output

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/cmdsift/cmdsift/pkg/report"
)

// TemplateEngine renders per-report summary lines with variable
// interpolation. It supports both simple variable substitution
// (e.g. {command}) and expr expressions (e.g. {{confidence * 100}}).
type TemplateEngine struct {
	programCache map[string]*vm.Program
}

// NewTemplateEngine creates a new template engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		programCache: make(map[string]*vm.Program),
	}
}

var (
	exprPlaceholderRe = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	varPlaceholderRe  = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_\.]*)\}`)
)

// Render renders a template string with the given data.
func (t *TemplateEngine) Render(template string, data map[string]interface{}) (string, error) {
	if template == "" {
		return "", nil
	}
	if data == nil {
		data = make(map[string]interface{})
	}

	result, err := t.processExpressions(template, data)
	if err != nil {
		return "", err
	}
	return t.processVariables(result, data)
}

// RenderReport renders a template against one extraction report.
func (t *TemplateEngine) RenderReport(template string, rep *report.ExtractionReport) (string, error) {
	return t.Render(template, ReportEnv(rep))
}

// ReportEnv builds the template environment for one report. The keys
// match the accept-expression environment used for batch filtering.
func ReportEnv(rep *report.ExtractionReport) map[string]interface{} {
	return map[string]interface{}{
		"command":      rep.Command,
		"success":      rep.Success,
		"accepted":     rep.AcceptedForSuggestions,
		"quality_tier": string(rep.QualityTier),
		"confidence":   rep.Confidence,
		"coverage":     rep.Coverage,
		"failure_code": string(rep.FailureCode),
		"version":      rep.DetectedVersion,
		"format":       rep.SelectedFormat,
	}
}

// processExpressions processes {{ expr }} style expressions.
func (t *TemplateEngine) processExpressions(template string, data map[string]interface{}) (string, error) {
	var lastErr error
	result := exprPlaceholderRe.ReplaceAllStringFunc(template, func(match string) string {
		expression := strings.TrimSpace(match[2 : len(match)-2])
		value, err := t.evaluateExpression(expression, data)
		if err != nil {
			lastErr = err
			return match
		}
		return fmt.Sprint(value)
	})

	if lastErr != nil {
		return "", fmt.Errorf("failed to evaluate expression: %w", lastErr)
	}
	return result, nil
}

// processVariables processes {variable} style substitution.
func (t *TemplateEngine) processVariables(template string, data map[string]interface{}) (string, error) {
	var lastErr error
	result := varPlaceholderRe.ReplaceAllStringFunc(template, func(match string) string {
		varName := strings.TrimSpace(match[1 : len(match)-1])
		value, ok := data[varName]
		if !ok {
			lastErr = fmt.Errorf("variable '%s' not found", varName)
			return match
		}
		return fmt.Sprint(value)
	})

	if lastErr != nil {
		return "", fmt.Errorf("failed to resolve variable: %w", lastErr)
	}
	return result, nil
}

// evaluateExpression evaluates an expr expression, compiling and
// caching it on first use.
func (t *TemplateEngine) evaluateExpression(expression string, data map[string]interface{}) (interface{}, error) {
	program, ok := t.programCache[expression]
	if !ok {
		var err error
		program, err = expr.Compile(expression, expr.Env(data), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression '%s': %w", expression, err)
		}
		t.programCache[expression] = program
	}

	result, err := expr.Run(program, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute expression '%s': %w", expression, err)
	}
	return result, nil
}

// ClearCache clears the compiled expression cache.
func (t *TemplateEngine) ClearCache() {
	t.programCache = make(map[string]*vm.Program)
}
