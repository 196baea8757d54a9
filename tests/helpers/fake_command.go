package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// FakeCommand describes a synthetic executable that answers help and
// version probes with canned text.
type FakeCommand struct {
	Name     string
	HelpText string
	// Version is printed for --version as "<name> version <version>".
	Version string
	// Subcommands maps a subcommand name to the help text printed for
	// "<name> <sub> --help".
	Subcommands map[string]string
	// ExitCode is the status for help responses. Tools that print help
	// and still exit non-zero are common enough to deserve coverage.
	ExitCode int
}

// FakeBinDir installs the given commands into a fresh directory and
// points PATH at it alone, so probes cannot reach real binaries.
func FakeBinDir(t *testing.T, commands ...FakeCommand) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake commands are POSIX shell scripts")
	}

	dir := t.TempDir()
	for _, fc := range commands {
		InstallFakeCommand(t, dir, fc)
	}
	t.Setenv("PATH", dir)
	return dir
}

// InstallFakeCommand writes one fake executable into dir and returns
// its path.
func InstallFakeCommand(t *testing.T, dir string, fc FakeCommand) string {
	t.Helper()
	if fc.Name == "" {
		t.Fatal("fake command needs a name")
	}

	path := filepath.Join(dir, fc.Name)
	if err := os.WriteFile(path, []byte(fakeScript(fc)), 0755); err != nil {
		t.Fatalf("failed to install fake command %s: %v", fc.Name, err)
	}
	return path
}

func fakeScript(fc FakeCommand) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\ncase \"$*\" in\n")

	fmt.Fprintf(&b, "\"--help\"|\"-h\"|\"help\")\n")
	writeHelpText(&b, fc.HelpText)
	fmt.Fprintf(&b, "exit %d ;;\n", fc.ExitCode)

	if fc.Version != "" {
		fmt.Fprintf(&b, "\"--version\")\necho \"%s version %s\"\nexit 0 ;;\n", fc.Name, fc.Version)
	}

	// Deterministic script text keeps binary fingerprints stable for
	// cache tests.
	subs := make([]string, 0, len(fc.Subcommands))
	for name := range fc.Subcommands {
		subs = append(subs, name)
	}
	sort.Strings(subs)
	for _, name := range subs {
		fmt.Fprintf(&b, "\"%s --help\")\n", name)
		writeHelpText(&b, fc.Subcommands[name])
		b.WriteString("exit 0 ;;\n")
	}

	b.WriteString("*)\necho \"unknown option: $*\" >&2\nexit 2 ;;\nesac\n")
	return b.String()
}

// writeHelpText emits the help text through the printf builtin. PATH
// holds nothing but the fake commands during these tests, so the
// script cannot rely on external tools like cat.
func writeHelpText(b *strings.Builder, text string) {
	quoted := strings.ReplaceAll(strings.TrimRight(text, "\n"), "'", `'\''`)
	fmt.Fprintf(b, "printf '%%s\\n' '%s'\n", quoted)
}
