package schema

import (
	"encoding/json"
	"testing"
)

func TestFlagCanonicalName(t *testing.T) {
	tests := []struct {
		name string
		flag FlagSchema
		want string
	}{
		{"long preferred", BooleanFlag("-v", "--verbose"), "--verbose"},
		{"short only", BooleanFlag("-v", ""), "-v"},
		{"long only", BooleanFlag("", "--verbose"), "--verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flag.CanonicalName(); got != tt.want {
				t.Errorf("CanonicalName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlagMatches(t *testing.T) {
	flag := ValueFlag("-m", "--message", String())

	tests := []struct {
		token string
		want  bool
	}{
		{"-m", true},
		{"--message", true},
		{"--message=hello", true},
		{"--msg", false},
		{"-x", false},
	}

	for _, tt := range tests {
		if got := flag.Matches(tt.token); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestValueTypeJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		vt   ValueType
		want string
	}{
		{"bool", Bool(), `"bool"`},
		{"file", Kind(ValueFile), `"file"`},
		{"choice", Choice("json", "yaml"), `{"choice":["json","yaml"]}`},
		{"zero defaults to any", ValueType{}, `"any"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.vt)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal = %s, want %s", data, tt.want)
			}

			var back ValueType
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if tt.vt.Kind != "" && !back.Equal(tt.vt) {
				t.Errorf("round trip: got %+v, want %+v", back, tt.vt)
			}
		})
	}
}

func TestCommandSchemaJSONFieldNames(t *testing.T) {
	s := NewCommandSchema("git", SourceHelpCommand)
	s.GlobalFlags = append(s.GlobalFlags, BooleanFlag("-v", "--verbose"))

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, key := range []string{"schema_version", "command", "global_flags", "subcommands", "positional", "source", "confidence"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("serialized schema missing key %q", key)
		}
	}

	var source string
	if err := json.Unmarshal(raw["source"], &source); err != nil {
		t.Fatalf("source: %v", err)
	}
	if source != "help_command" {
		t.Errorf("source tag = %q, want help_command", source)
	}
}

func TestSubcommandPositionalFieldName(t *testing.T) {
	sub := NewSubcommand("clone")
	sub.Args = append(sub.Args, ArgSchema{Name: "repository", ValueType: String(), Required: true})

	data, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := raw["positional"]; !ok {
		t.Errorf("serialized subcommand missing key %q: %s", "positional", data)
	}
	if _, ok := raw["args"]; ok {
		t.Errorf("subcommand positionals serialized under a legacy key: %s", data)
	}
}

func TestFindSubcommand(t *testing.T) {
	s := NewCommandSchema("git", SourceHelpCommand)
	remote := NewSubcommand("remote")
	remote.Subcommands = append(remote.Subcommands, NewSubcommand("add"))
	s.Subcommands = append(s.Subcommands, remote)
	build := NewSubcommand("build")
	build.Aliases = []string{"b"}
	s.Subcommands = append(s.Subcommands, build)

	if sub := s.FindSubcommand("remote", "add"); sub == nil || sub.Name != "add" {
		t.Errorf("FindSubcommand(remote, add) = %v", sub)
	}
	if sub := s.FindSubcommand("b"); sub == nil || sub.Name != "build" {
		t.Errorf("FindSubcommand by alias = %v", sub)
	}
	if sub := s.FindSubcommand("missing"); sub != nil {
		t.Errorf("FindSubcommand(missing) = %v, want nil", sub)
	}
}

func TestFlagsForSubcommand(t *testing.T) {
	s := NewCommandSchema("git", SourceHelpCommand)
	s.GlobalFlags = append(s.GlobalFlags, BooleanFlag("-v", "--verbose"))
	commit := NewSubcommand("commit").WithFlag(ValueFlag("-m", "--message", String()))
	s.Subcommands = append(s.Subcommands, commit)

	flags := s.FlagsForSubcommand("commit")
	if len(flags) != 2 {
		t.Fatalf("FlagsForSubcommand(commit) returned %d flags, want 2", len(flags))
	}
	if flags[0].CanonicalName() != "--verbose" || flags[1].CanonicalName() != "--message" {
		t.Errorf("unexpected flag order: %v", flags)
	}
}
