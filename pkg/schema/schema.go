// Package schema defines the command schema data model shared by the
// extraction engine and the CLI.
//
// A CommandSchema describes the invocation surface of one executable:
// its global flags, its subcommand tree, and its positional arguments.
// Schemas are produced by the extraction pipeline, serialized as JSON
// or YAML, and validated before they are bundled or consumed.
//
// # Contract
//
// The serialized form is versioned by ContractVersion. Field names are
// snake_case and enum tags are lower-case; a choice value type carries
// its allowed values.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContractVersion is the version of the serialized schema contract.
const ContractVersion = "1.0.0"

// Source tracks how a schema was obtained.
type Source string

// Schema sources, in rough order of trustworthiness.
const (
	SourceHelpCommand Source = "help_command"
	SourceManPage     Source = "man_page"
	SourceBootstrap   Source = "bootstrap"
	SourceLearned     Source = "learned"
)

// ValueKind enumerates the kinds of values a flag or argument accepts.
type ValueKind string

// Value kinds inferred from help text heuristics.
const (
	ValueBool      ValueKind = "bool"
	ValueString    ValueKind = "string"
	ValueNumber    ValueKind = "number"
	ValueFile      ValueKind = "file"
	ValueDirectory ValueKind = "directory"
	ValueURL       ValueKind = "url"
	ValueBranch    ValueKind = "branch"
	ValueRemote    ValueKind = "remote"
	ValueChoice    ValueKind = "choice"
	ValueAny       ValueKind = "any"
)

// ValueType describes what kind of value a flag or argument accepts.
// Most kinds are bare tags; ValueChoice additionally carries the set of
// allowed values.
type ValueType struct {
	Kind    ValueKind
	Choices []string
}

// String returns a plain ValueType of the string kind.
func String() ValueType { return ValueType{Kind: ValueString} }

// Bool returns a plain ValueType of the bool kind.
func Bool() ValueType { return ValueType{Kind: ValueBool} }

// Any returns the unknown/any ValueType, the default for untyped values.
func Any() ValueType { return ValueType{Kind: ValueAny} }

// Kind returns a plain ValueType of the given kind. Use Choice for
// choice types.
func Kind(kind ValueKind) ValueType { return ValueType{Kind: kind} }

// Choice returns a ValueType restricted to the given values.
func Choice(values ...string) ValueType {
	return ValueType{Kind: ValueChoice, Choices: values}
}

// IsZero reports whether the value type is unset.
func (v ValueType) IsZero() bool { return v.Kind == "" }

// Equal reports whether two value types are the same kind with the
// same choice values.
func (v ValueType) Equal(other ValueType) bool {
	if v.Kind != other.Kind {
		return false
	}
	if len(v.Choices) != len(other.Choices) {
		return false
	}
	for i := range v.Choices {
		if v.Choices[i] != other.Choices[i] {
			return false
		}
	}
	return true
}

// MarshalJSON serializes plain kinds as a bare string and choice types
// as {"choice": [...]}.
func (v ValueType) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueChoice {
		return json.Marshal(map[string][]string{"choice": v.Choices})
	}
	kind := v.Kind
	if kind == "" {
		kind = ValueAny
	}
	return json.Marshal(string(kind))
}

// UnmarshalJSON accepts both the bare string form and the choice form.
func (v *ValueType) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		v.Kind = ValueKind(kind)
		v.Choices = nil
		return nil
	}

	var choice map[string][]string
	if err := json.Unmarshal(data, &choice); err != nil {
		return fmt.Errorf("failed to parse value type: %w", err)
	}
	values, ok := choice["choice"]
	if !ok {
		return fmt.Errorf("failed to parse value type: unknown object form")
	}
	v.Kind = ValueChoice
	v.Choices = values
	return nil
}

// MarshalYAML mirrors the JSON representation.
func (v ValueType) MarshalYAML() (interface{}, error) {
	if v.Kind == ValueChoice {
		return map[string][]string{"choice": v.Choices}, nil
	}
	kind := v.Kind
	if kind == "" {
		kind = ValueAny
	}
	return string(kind), nil
}

// UnmarshalYAML mirrors the JSON representation.
func (v *ValueType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var kind string
	if err := unmarshal(&kind); err == nil {
		v.Kind = ValueKind(kind)
		v.Choices = nil
		return nil
	}
	var choice map[string][]string
	if err := unmarshal(&choice); err != nil {
		return fmt.Errorf("failed to parse value type: %w", err)
	}
	values, ok := choice["choice"]
	if !ok {
		return fmt.Errorf("failed to parse value type: unknown object form")
	}
	v.Kind = ValueChoice
	v.Choices = values
	return nil
}

// FlagSchema describes a single command flag. A flag has an optional
// short form (-v) and/or long form (--verbose), an associated value
// type, and optional metadata like description, multiplicity, and
// relationships to other flags.
type FlagSchema struct {
	// Short form (e.g. "-m")
	Short string `json:"short,omitempty" yaml:"short,omitempty"`
	// Long form (e.g. "--message")
	Long string `json:"long,omitempty" yaml:"long,omitempty"`
	// Type of value this flag accepts
	ValueType ValueType `json:"value_type" yaml:"value_type"`
	// Whether the flag consumes a value
	TakesValue bool `json:"takes_value" yaml:"takes_value"`
	// Description from help text
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Whether the flag may be given multiple times
	Multiple bool `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	// Canonical names of flags this flag cannot be combined with
	ConflictsWith []string `json:"conflicts_with,omitempty" yaml:"conflicts_with,omitempty"`
	// Canonical names of flags this flag requires
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// BooleanFlag creates a flag that takes no value.
func BooleanFlag(short, long string) FlagSchema {
	return FlagSchema{Short: short, Long: long, ValueType: Bool()}
}

// ValueFlag creates a flag that consumes a value of the given type.
func ValueFlag(short, long string, valueType ValueType) FlagSchema {
	return FlagSchema{Short: short, Long: long, ValueType: valueType, TakesValue: true}
}

// WithDescription returns a copy of the flag with the description set.
func (f FlagSchema) WithDescription(description string) FlagSchema {
	f.Description = description
	return f
}

// CanonicalName returns the long form when present, otherwise the
// short form.
func (f FlagSchema) CanonicalName() string {
	if f.Long != "" {
		return f.Long
	}
	return f.Short
}

// Matches reports whether the given command-line token refers to this
// flag. Tokens of the form --flag=value match on the flag part.
func (f FlagSchema) Matches(token string) bool {
	name := token
	if idx := strings.IndexByte(token, '='); idx >= 0 {
		name = token[:idx]
	}
	return (f.Short != "" && f.Short == name) || (f.Long != "" && f.Long == name)
}

// ArgSchema describes a positional argument.
type ArgSchema struct {
	// Placeholder name from the help text (e.g. "FILE", "pattern")
	Name string `json:"name" yaml:"name"`
	// Type of value the argument accepts
	ValueType ValueType `json:"value_type" yaml:"value_type"`
	// Whether the argument must be supplied
	Required bool `json:"required" yaml:"required"`
	// Whether the argument may repeat
	Multiple bool `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	// Description from help text
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// RequiredArg creates a required positional argument.
func RequiredArg(name string, valueType ValueType) ArgSchema {
	return ArgSchema{Name: name, ValueType: valueType, Required: true}
}

// OptionalArg creates an optional positional argument.
func OptionalArg(name string, valueType ValueType) ArgSchema {
	return ArgSchema{Name: name, ValueType: valueType}
}

// SubcommandSchema describes one subcommand, recursively.
type SubcommandSchema struct {
	Name string `json:"name" yaml:"name"`
	// Description from help text
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Flags specific to this subcommand
	Flags []FlagSchema `json:"flags,omitempty" yaml:"flags,omitempty"`
	// Nested subcommands
	Subcommands []SubcommandSchema `json:"subcommands,omitempty" yaml:"subcommands,omitempty"`
	// Positional arguments
	Args []ArgSchema `json:"positional,omitempty" yaml:"positional,omitempty"`
	// Alternate names (e.g. "b" for "build")
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// NewSubcommand creates an empty subcommand schema with the given name.
func NewSubcommand(name string) SubcommandSchema {
	return SubcommandSchema{Name: name}
}

// WithFlag returns a copy of the subcommand with the flag appended.
func (s SubcommandSchema) WithFlag(flag FlagSchema) SubcommandSchema {
	s.Flags = append(s.Flags, flag)
	return s
}

// CommandSchema is the root schema for one executable.
type CommandSchema struct {
	// Schema contract version (populated from ContractVersion)
	SchemaVersion string `json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	// The base command name (e.g. "git", "docker")
	Command string `json:"command" yaml:"command"`
	// Short description of the command
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Global flags, applying to all subcommands
	GlobalFlags []FlagSchema `json:"global_flags" yaml:"global_flags"`
	// Subcommand tree
	Subcommands []SubcommandSchema `json:"subcommands" yaml:"subcommands"`
	// Positional arguments for commands without subcommands
	Positional []ArgSchema `json:"positional" yaml:"positional"`
	// Where this schema came from
	Source Source `json:"source" yaml:"source"`
	// Extraction confidence in [0, 1]
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// Version string if detected
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// NewCommandSchema creates a schema for the given command with full
// confidence and the current contract version.
func NewCommandSchema(command string, source Source) *CommandSchema {
	return &CommandSchema{
		SchemaVersion: ContractVersion,
		Command:       command,
		GlobalFlags:   []FlagSchema{},
		Subcommands:   []SubcommandSchema{},
		Positional:    []ArgSchema{},
		Source:        source,
		Confidence:    1.0,
	}
}

// SubcommandNames returns the top-level subcommand names in order.
func (s *CommandSchema) SubcommandNames() []string {
	names := make([]string, 0, len(s.Subcommands))
	for _, sub := range s.Subcommands {
		names = append(names, sub.Name)
	}
	return names
}

// FindSubcommand walks the subcommand tree along the given path and
// returns the matching node, or nil. Aliases match at every level.
func (s *CommandSchema) FindSubcommand(path ...string) *SubcommandSchema {
	if len(path) == 0 {
		return nil
	}
	current := findIn(s.Subcommands, path[0])
	for _, name := range path[1:] {
		if current == nil {
			return nil
		}
		current = findIn(current.Subcommands, name)
	}
	return current
}

func findIn(subs []SubcommandSchema, name string) *SubcommandSchema {
	for i := range subs {
		if subs[i].Name == name {
			return &subs[i]
		}
		for _, alias := range subs[i].Aliases {
			if alias == name {
				return &subs[i]
			}
		}
	}
	return nil
}

// FlagsForSubcommand returns global flags plus the flags of every node
// along the given subcommand path. An empty path returns the global
// flags only.
func (s *CommandSchema) FlagsForSubcommand(path ...string) []FlagSchema {
	flags := make([]FlagSchema, 0, len(s.GlobalFlags))
	flags = append(flags, s.GlobalFlags...)

	subs := s.Subcommands
	for _, name := range path {
		sub := findIn(subs, name)
		if sub == nil {
			break
		}
		flags = append(flags, sub.Flags...)
		subs = sub.Subcommands
	}
	return flags
}
