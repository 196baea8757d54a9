package output

import "testing"

func TestNewFormatConfig(t *testing.T) {
	config := NewFormatConfig()

	if !config.Pretty {
		t.Error("Expected Pretty to be true by default")
	}
	if !config.Colors {
		t.Error("Expected Colors to be true by default")
	}
	if !config.ShowHeaders {
		t.Error("Expected ShowHeaders to be true by default")
	}
	if config.MaxWidth != 60 {
		t.Errorf("Expected MaxWidth to be 60, got %d", config.MaxWidth)
	}
}

func TestFormatConfigBuilders(t *testing.T) {
	config := NewFormatConfig().
		WithPretty(false).
		WithColors(false).
		WithCompact(true).
		WithMaxWidth(40)

	if config.Pretty {
		t.Error("Expected Pretty to be false")
	}
	if config.Colors {
		t.Error("Expected Colors to be false")
	}
	if !config.Compact {
		t.Error("Expected Compact to be true")
	}
	if config.MaxWidth != 40 {
		t.Errorf("Expected MaxWidth to be 40, got %d", config.MaxWidth)
	}
}
