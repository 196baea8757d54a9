package schema

import "testing"

func TestValidateSchemaAcceptsWellFormed(t *testing.T) {
	s := NewCommandSchema("git", SourceBootstrap)
	quiet := BooleanFlag("-q", "--quiet")
	quiet.ConflictsWith = []string{"--verbose"}
	s.GlobalFlags = append(s.GlobalFlags, BooleanFlag("-v", "--verbose"), quiet)
	s.Subcommands = append(s.Subcommands, NewSubcommand("commit"))

	if errs := ValidateSchema(s); len(errs) != 0 {
		t.Errorf("ValidateSchema returned errors: %v", errs)
	}

	// A repeating positional is fine when it comes last.
	tail := NewCommandSchema("cat", SourceBootstrap)
	tail.Positional = append(tail.Positional,
		ArgSchema{Name: "dest", ValueType: String(), Required: true},
		ArgSchema{Name: "files", ValueType: String(), Multiple: true},
	)
	if errs := ValidateSchema(tail); len(errs) != 0 {
		t.Errorf("ValidateSchema returned errors: %v", errs)
	}
}

func TestValidateSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CommandSchema)
		want   ValidationCode
	}{
		{
			"empty command name",
			func(s *CommandSchema) { s.Command = "  " },
			ErrEmptyCommandName,
		},
		{
			"short flag without dash",
			func(s *CommandSchema) {
				s.GlobalFlags = append(s.GlobalFlags, BooleanFlag("v", "--verbose"))
			},
			ErrInvalidShortFlag,
		},
		{
			"long flag without double dash",
			func(s *CommandSchema) {
				s.GlobalFlags = append(s.GlobalFlags, BooleanFlag("-v", "-verbose"))
			},
			ErrInvalidLongFlag,
		},
		{
			"flag with no name",
			func(s *CommandSchema) {
				s.GlobalFlags = append(s.GlobalFlags, FlagSchema{ValueType: Bool()})
			},
			ErrMissingFlagName,
		},
		{
			"duplicate flag in scope",
			func(s *CommandSchema) {
				s.GlobalFlags = append(s.GlobalFlags,
					BooleanFlag("", "--force"),
					BooleanFlag("-f", "--force"),
				)
			},
			ErrDuplicateFlag,
		},
		{
			"duplicate subcommand in scope",
			func(s *CommandSchema) {
				s.Subcommands = append(s.Subcommands, NewSubcommand("pull"), NewSubcommand("pull"))
			},
			ErrDuplicateSubcommand,
		},
		{
			"subcommand cycle",
			func(s *CommandSchema) {
				remote := NewSubcommand("remote")
				remote.Subcommands = append(remote.Subcommands, NewSubcommand("git"))
				s.Subcommands = append(s.Subcommands, remote)
			},
			ErrSubcommandCycle,
		},
		{
			"conflict reference outside scope",
			func(s *CommandSchema) {
				flag := BooleanFlag("-q", "--quiet")
				flag.ConflictsWith = []string{"--verbose"}
				s.GlobalFlags = append(s.GlobalFlags, flag)
			},
			ErrUnknownFlagReference,
		},
		{
			"requires reference outside scope",
			func(s *CommandSchema) {
				flag := BooleanFlag("", "--watch")
				flag.Requires = []string{"--output"}
				s.GlobalFlags = append(s.GlobalFlags, flag)
			},
			ErrUnknownFlagReference,
		},
		{
			"repeating positional not last",
			func(s *CommandSchema) {
				s.Positional = append(s.Positional,
					ArgSchema{Name: "files", ValueType: String(), Multiple: true},
					ArgSchema{Name: "dest", ValueType: String()},
				)
			},
			ErrMultipleNotLast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCommandSchema("git", SourceBootstrap)
			tt.mutate(s)

			errs := ValidateSchema(s)
			if len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
			if errs[0].Code != tt.want {
				t.Errorf("error code = %s, want %s", errs[0].Code, tt.want)
			}
		})
	}
}

func TestValidateSchemaCollectsAllErrors(t *testing.T) {
	s := NewCommandSchema("git", SourceBootstrap)
	s.GlobalFlags = append(s.GlobalFlags,
		BooleanFlag("v", "--verbose"),
		BooleanFlag("-f", "-force"),
	)
	s.Subcommands = append(s.Subcommands, NewSubcommand("pull"), NewSubcommand("pull"))

	errs := ValidateSchema(s)
	codes := map[ValidationCode]bool{}
	for _, e := range errs {
		codes[e.Code] = true
	}
	for _, want := range []ValidationCode{ErrInvalidShortFlag, ErrInvalidLongFlag, ErrDuplicateSubcommand} {
		if !codes[want] {
			t.Errorf("missing %s in %v", want, errs)
		}
	}
}

func TestValidatePackage(t *testing.T) {
	p := NewPackage("1.0.0", "2026-01-01T00:00:00Z")
	p.Schemas = append(p.Schemas, *NewCommandSchema("git", SourceBootstrap))
	if errs := ValidatePackage(p); len(errs) != 0 {
		t.Errorf("ValidatePackage returned errors: %v", errs)
	}

	p.Schemas = append(p.Schemas, *NewCommandSchema("git", SourceBootstrap))
	errs := ValidatePackage(p)
	if len(errs) == 0 || errs[0].Code != ErrDuplicateCommand {
		t.Errorf("expected duplicate command error, got %v", errs)
	}

	empty := NewPackage(" ", "2026-01-01T00:00:00Z")
	errs = ValidatePackage(empty)
	if len(errs) == 0 || errs[0].Code != ErrEmptyPackageVersion {
		t.Errorf("expected empty package version error, got %v", errs)
	}
}
