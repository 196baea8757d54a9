// Package probe runs candidate help invocations against installed
// binaries and captures their output for parsing.
//
// Every invocation runs with a scrubbed environment (dumb terminal, no
// color, pagers disabled) and a hard timeout, so a misbehaving tool can
// stall an extraction for at most one probe slot.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/cmdsift/cmdsift/pkg/report"
)

// HelpFlags are tried in order against every command.
var HelpFlags = []string{"--help", "-h", "-?"}

// DefaultTimeout bounds a single probe invocation.
const DefaultTimeout = 5 * time.Second

// previewLen caps the output excerpt recorded in probe attempts.
const previewLen = 160

// extraHelpArgs lists commands whose help flag needs a trailing
// argument to print the full listing.
var extraHelpArgs = map[string][]string{
	"ps": {"--help", "all"},
}

// safeShellCommandRe guards the login-shell fallback. Anything with
// shell metacharacters never reaches bash.
var safeShellCommandRe = regexp.MustCompile(`^[A-Za-z0-9._+/-]+$`)

// Capture is the raw result of one probe invocation.
type Capture struct {
	Argv     []string
	HelpFlag string
	ExitCode *int
	TimedOut bool
	Err      string
	Stdout   string
	Stderr   string
}

// Output returns the stream chosen for parsing. Tools split help
// between stdout and stderr inconsistently; the longer stream wins.
func (c Capture) Output() (string, report.OutputSource) {
	if len(c.Stderr) > len(c.Stdout) {
		return c.Stderr, report.SourceStderr
	}
	return c.Stdout, report.SourceStdout
}

// Attempt converts the capture into a report entry.
func (c Capture) Attempt(accepted bool, rejection string) report.ProbeAttempt {
	output, source := c.Output()
	return report.ProbeAttempt{
		HelpFlag:        c.HelpFlag,
		Argv:            c.Argv,
		ExitCode:        c.ExitCode,
		TimedOut:        c.TimedOut,
		Error:           c.Err,
		RejectionReason: rejection,
		OutputSource:    source,
		OutputLen:       len(output),
		OutputPreview:   preview(output),
		Accepted:        accepted,
	}
}

// Prober executes probe invocations.
type Prober struct {
	// Timeout for a single invocation (DefaultTimeout when zero)
	Timeout time.Duration
	// LookPath resolves a command name; exec.LookPath when nil
	LookPath func(string) (string, error)
}

// New returns a Prober with the default timeout.
func New() *Prober {
	return &Prober{Timeout: DefaultTimeout}
}

// Resolve finds the executable for a command name.
func (p *Prober) Resolve(command string) (string, error) {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(command)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", command, err)
	}
	return path, nil
}

// HelpArgv returns the candidate argument lists for a command, in
// probe order.
func HelpArgv(command string) [][]string {
	var candidates [][]string
	for _, flag := range HelpFlags {
		candidates = append(candidates, []string{command, flag})
	}
	if extra, ok := extraHelpArgs[command]; ok {
		candidates = append(candidates, append([]string{command}, extra...))
	}
	return candidates
}

// Run executes one argv under the scrubbed environment and timeout.
func (p *Prober) Run(ctx context.Context, argv []string) Capture {
	return p.run(ctx, argv, nil)
}

// RunMan renders the command's man page through a plain pager. The
// capture carries the man_page help flag marker.
func (p *Prober) RunMan(ctx context.Context, command string) Capture {
	res := p.run(ctx, []string{"man", command}, []string{"MANWIDTH=80"})
	res.HelpFlag = "man"
	return res
}

// RunShell retries a probe through a login shell, for commands that
// only exist as shell functions or need profile initialization. The
// command name is validated against a strict pattern first.
func (p *Prober) RunShell(ctx context.Context, command, helpFlag string) Capture {
	if !safeShellCommandRe.MatchString(command) {
		return Capture{
			Argv:     []string{command, helpFlag},
			HelpFlag: helpFlag,
			Err:      "command name rejected for shell fallback",
		}
	}
	res := p.run(ctx, []string{"bash", "-lc", command + " " + helpFlag}, nil)
	res.Argv = []string{command, helpFlag}
	res.HelpFlag = helpFlag
	return res
}

func (p *Prober) run(ctx context.Context, argv []string, extraEnv []string) Capture {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := Capture{Argv: argv}
	if len(argv) > 1 && strings.HasPrefix(argv[len(argv)-1], "-") {
		res.HelpFlag = argv[len(argv)-1]
	} else if len(argv) > 1 {
		res.HelpFlag = argv[1]
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Env = append(scrubEnv(os.Environ()), extraEnv...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.Err = "probe timed out"
		return res
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			res.ExitCode = &code
		} else {
			res.Err = err.Error()
		}
		return res
	}

	zero := 0
	res.ExitCode = &zero
	return res
}

// scrubEnv rewrites the inherited environment so probes see a dumb,
// non-interactive, unpaged terminal.
func scrubEnv(base []string) []string {
	overrides := map[string]string{
		"TERM":            "dumb",
		"NO_COLOR":        "1",
		"PAGER":           "cat",
		"MANPAGER":        "cat",
		"GIT_PAGER":       "cat",
		"DISPLAY":         "",
		"DEBIAN_FRONTEND": "noninteractive",
		"LC_ALL":          "C",
	}

	var env []string
	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, overridden := overrides[key]; overridden {
			continue
		}
		env = append(env, kv)
	}
	for key, value := range overrides {
		env = append(env, key+"="+value)
	}
	return env
}

func preview(output string) string {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) <= previewLen {
		return trimmed
	}
	return trimmed[:previewLen]
}
