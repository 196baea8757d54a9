package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validator handles configuration validation.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates a complete configuration. It expects defaults to
// be merged already.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	if config.Probe != nil {
		v.validateProbe(config.Probe)
	}
	if config.Policy != nil {
		v.validatePolicy(config.Policy)
	}
	if config.Cache != nil {
		v.validateCache(config.Cache)
	}
	if config.Discover != nil {
		v.validateDiscover(config.Discover)
	}
	if config.Output != nil {
		v.validateOutput(config.Output)
	}

	if len(v.errors) > 0 {
		return v.errors
	}

	return nil
}

func (v *Validator) validateProbe(p *ProbeConfig) {
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			v.addError("probe.timeout", "timeout must be a duration like 5s or 500ms")
		} else if d <= 0 {
			v.addError("probe.timeout", "timeout must be positive")
		}
	}
}

func (v *Validator) validatePolicy(p *PolicyConfig) {
	if p.MinConfidence != nil && (*p.MinConfidence < 0 || *p.MinConfidence > 1) {
		v.addError("policy.min_confidence", "min_confidence must be between 0.0 and 1.0")
	}
	if p.MinCoverage != nil && (*p.MinCoverage < 0 || *p.MinCoverage > 1) {
		v.addError("policy.min_coverage", "min_coverage must be between 0.0 and 1.0")
	}
	if p.AcceptExpr != "" {
		if _, err := expr.Compile(p.AcceptExpr, expr.AsBool()); err != nil {
			v.addError("policy.accept_expr", fmt.Sprintf("accept_expr does not compile: %v", err))
		}
	}
}

func (v *Validator) validateCache(c *CacheConfig) {
	if c.TTL != "" {
		d, err := time.ParseDuration(c.TTL)
		if err != nil {
			v.addError("cache.ttl", "ttl must be a duration like 168h")
		} else if d <= 0 {
			v.addError("cache.ttl", "ttl must be positive")
		}
	}
}

func (v *Validator) validateDiscover(d *DiscoverConfig) {
	if d.Jobs < 0 {
		v.addError("discover.jobs", "jobs cannot be negative")
	}
	if d.Jobs > 64 {
		v.addError("discover.jobs", "jobs must be 64 or less")
	}
	if d.Limit < 0 {
		v.addError("discover.limit", "limit cannot be negative")
	}
	for _, pattern := range d.Exclude {
		if strings.TrimSpace(pattern) == "" {
			v.addError("discover.exclude", "exclude entries cannot be blank")
		}
	}
}

func (v *Validator) validateOutput(o *OutputConfig) {
	switch o.Format {
	case "", "json", "yaml", "markdown", "table":
	default:
		v.addError("output.format", "format must be one of: json, yaml, markdown, table")
	}
	switch o.Color {
	case "", "auto", "always", "never":
	default:
		v.addError("output.color", "color must be one of: auto, always, never")
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}
