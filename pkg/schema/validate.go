package schema

import (
	"fmt"
	"strings"
)

// ValidationError describes one structural problem found during
// validation.
type ValidationError struct {
	Code   ValidationCode
	Detail string
}

// ValidationCode identifies the class of a validation error.
type ValidationCode string

// Validation error codes.
const (
	ErrEmptyPackageVersion  ValidationCode = "empty_package_version"
	ErrEmptyCommandName     ValidationCode = "empty_command_name"
	ErrDuplicateCommand     ValidationCode = "duplicate_command"
	ErrInvalidShortFlag     ValidationCode = "invalid_short_flag"
	ErrInvalidLongFlag      ValidationCode = "invalid_long_flag"
	ErrMissingFlagName      ValidationCode = "missing_flag_name"
	ErrDuplicateFlag        ValidationCode = "duplicate_flag"
	ErrDuplicateSubcommand  ValidationCode = "duplicate_subcommand"
	ErrSubcommandCycle      ValidationCode = "subcommand_cycle"
	ErrUnknownFlagReference ValidationCode = "unknown_flag_reference"
	ErrMultipleNotLast      ValidationCode = "multiple_positional_not_last"
)

// Error renders a human-readable message.
func (e ValidationError) Error() string {
	switch e.Code {
	case ErrEmptyPackageVersion:
		return "package version cannot be empty"
	case ErrEmptyCommandName:
		return "schema command cannot be empty"
	case ErrDuplicateCommand:
		return fmt.Sprintf("duplicate command in package: %s", e.Detail)
	case ErrInvalidShortFlag:
		return fmt.Sprintf("invalid short flag format: %s", e.Detail)
	case ErrInvalidLongFlag:
		return fmt.Sprintf("invalid long flag format: %s", e.Detail)
	case ErrMissingFlagName:
		return "flag must define short or long form"
	case ErrDuplicateFlag:
		return fmt.Sprintf("duplicate flag in scope: %s", e.Detail)
	case ErrDuplicateSubcommand:
		return fmt.Sprintf("duplicate subcommand in scope: %s", e.Detail)
	case ErrSubcommandCycle:
		return fmt.Sprintf("subcommand cycle detected at path: %s", e.Detail)
	case ErrUnknownFlagReference:
		return fmt.Sprintf("flag reference does not resolve in scope: %s", e.Detail)
	case ErrMultipleNotLast:
		return fmt.Sprintf("repeating positional must be declared last: %s", e.Detail)
	default:
		return fmt.Sprintf("validation error: %s %s", e.Code, e.Detail)
	}
}

// ValidateSchema checks a command schema for empty names, invalid flag
// formats, duplicate flags and subcommands, subcommand cycles,
// unresolved conflicts_with/requires references, and misplaced
// repeating positionals. All problems are collected; validation never
// stops at the first error.
func ValidateSchema(s *CommandSchema) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(s.Command) == "" {
		errs = append(errs, ValidationError{Code: ErrEmptyCommandName})
	}
	errs = append(errs, validateFlags(s.GlobalFlags)...)
	errs = append(errs, validatePositionals(s.Positional)...)
	errs = append(errs, validateSubcommands(s.Subcommands, []string{s.Command})...)
	return errs
}

// ValidatePackage checks a schema package: an empty version string,
// duplicate command names across schemas, and each schema in turn.
func ValidatePackage(p *Package) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(p.Version) == "" {
		errs = append(errs, ValidationError{Code: ErrEmptyPackageVersion})
	}

	seen := make(map[string]bool, len(p.Schemas))
	for i := range p.Schemas {
		command := p.Schemas[i].Command
		if seen[command] {
			errs = append(errs, ValidationError{Code: ErrDuplicateCommand, Detail: command})
		}
		seen[command] = true
		errs = append(errs, ValidateSchema(&p.Schemas[i])...)
	}
	return errs
}

func validateSubcommands(subs []SubcommandSchema, path []string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(subs))

	for i := range subs {
		name := strings.TrimSpace(subs[i].Name)
		if name == "" {
			errs = append(errs, ValidationError{Code: ErrDuplicateSubcommand, Detail: "<empty>"})
			continue
		}
		if seen[name] {
			errs = append(errs, ValidationError{Code: ErrDuplicateSubcommand, Detail: name})
		}
		seen[name] = true

		for _, segment := range path {
			if segment == name {
				cycle := strings.Join(append(append([]string{}, path...), name), " ")
				errs = append(errs, ValidationError{Code: ErrSubcommandCycle, Detail: cycle})
			}
		}

		errs = append(errs, validateFlags(subs[i].Flags)...)
		errs = append(errs, validatePositionals(subs[i].Args)...)
		errs = append(errs, validateSubcommands(subs[i].Subcommands, append(path, name))...)
	}
	return errs
}

func validateFlags(flags []FlagSchema) []ValidationError {
	var errs []ValidationError

	names := make(map[string]bool, len(flags)*2)
	for _, flag := range flags {
		if flag.Short != "" {
			names[flag.Short] = true
		}
		if flag.Long != "" {
			names[flag.Long] = true
		}
	}

	seen := make(map[string]bool, len(flags)*2)
	for _, flag := range flags {
		if flag.Short == "" && flag.Long == "" {
			errs = append(errs, ValidationError{Code: ErrMissingFlagName})
			continue
		}

		if flag.Short != "" {
			if !strings.HasPrefix(flag.Short, "-") || strings.HasPrefix(flag.Short, "--") || len(flag.Short) < 2 {
				errs = append(errs, ValidationError{Code: ErrInvalidShortFlag, Detail: flag.Short})
			} else if seen[flag.Short] {
				errs = append(errs, ValidationError{Code: ErrDuplicateFlag, Detail: flag.Short})
			}
			seen[flag.Short] = true
		}

		if flag.Long != "" {
			if !strings.HasPrefix(flag.Long, "--") || len(flag.Long) < 3 {
				errs = append(errs, ValidationError{Code: ErrInvalidLongFlag, Detail: flag.Long})
			} else if seen[flag.Long] {
				errs = append(errs, ValidationError{Code: ErrDuplicateFlag, Detail: flag.Long})
			}
			seen[flag.Long] = true
		}

		for _, ref := range flag.ConflictsWith {
			if !names[ref] {
				errs = append(errs, ValidationError{Code: ErrUnknownFlagReference, Detail: flag.CanonicalName() + " conflicts_with " + ref})
			}
		}
		for _, ref := range flag.Requires {
			if !names[ref] {
				errs = append(errs, ValidationError{Code: ErrUnknownFlagReference, Detail: flag.CanonicalName() + " requires " + ref})
			}
		}
	}
	return errs
}

// validatePositionals enforces that a repeating positional, when
// present, is the last one declared in its scope. That also bounds the
// scope to at most one repeating positional.
func validatePositionals(args []ArgSchema) []ValidationError {
	var errs []ValidationError
	for i := range args {
		if args[i].Multiple && i != len(args)-1 {
			errs = append(errs, ValidationError{Code: ErrMultipleNotLast, Detail: args[i].Name})
		}
	}
	return errs
}
