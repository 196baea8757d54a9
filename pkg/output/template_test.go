package output

import (
	"strings"
	"testing"

	"github.com/cmdsift/cmdsift/pkg/report"
)

func TestTemplateEngineVariables(t *testing.T) {
	engine := NewTemplateEngine()

	result, err := engine.Render("{command}: {quality_tier}", map[string]interface{}{
		"command":      "git",
		"quality_tier": "high",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "git: high" {
		t.Errorf("Expected 'git: high', got %q", result)
	}
}

func TestTemplateEngineExpressions(t *testing.T) {
	engine := NewTemplateEngine()

	result, err := engine.Render("{{confidence * 100}}%", map[string]interface{}{
		"confidence": 0.85,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "85%" {
		t.Errorf("Expected '85%%', got %q", result)
	}
}

func TestTemplateEngineMissingVariable(t *testing.T) {
	engine := NewTemplateEngine()

	_, err := engine.Render("{nope}", map[string]interface{}{})
	if err == nil {
		t.Error("Expected error for missing variable")
	}
	if err != nil && !strings.Contains(err.Error(), "nope") {
		t.Errorf("Expected variable name in error, got %v", err)
	}
}

func TestTemplateEngineEmptyTemplate(t *testing.T) {
	engine := NewTemplateEngine()

	result, err := engine.Render("", map[string]interface{}{"x": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("Expected empty result, got %q", result)
	}
}

func TestTemplateEngineRenderReport(t *testing.T) {
	rep := report.NewReport("git")
	rep.Success = true
	rep.QualityTier = report.TierHigh
	rep.Confidence = 0.91
	rep.DetectedVersion = "2.39.2"

	engine := NewTemplateEngine()
	result, err := engine.RenderReport(`{command} {version} {{quality_tier == "high" ? "ok" : "check"}}`, rep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "git 2.39.2 ok" {
		t.Errorf("Expected 'git 2.39.2 ok', got %q", result)
	}
}

func TestTemplateEngineCachesPrograms(t *testing.T) {
	engine := NewTemplateEngine()
	data := map[string]interface{}{"n": 2}

	if _, err := engine.Render("{{n + 1}}", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(engine.programCache) != 1 {
		t.Errorf("Expected 1 cached program, got %d", len(engine.programCache))
	}

	engine.ClearCache()
	if len(engine.programCache) != 0 {
		t.Error("Expected empty cache after ClearCache")
	}
}
