package probe

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/cmdsift/cmdsift/pkg/report"
)

func TestHelpArgvOrder(t *testing.T) {
	argv := HelpArgv("git")
	if len(argv) != 3 {
		t.Fatalf("candidates = %v", argv)
	}
	if argv[0][1] != "--help" || argv[1][1] != "-h" || argv[2][1] != "-?" {
		t.Errorf("flag order = %v", argv)
	}
}

func TestHelpArgvExtraArgs(t *testing.T) {
	argv := HelpArgv("ps")
	last := argv[len(argv)-1]
	if len(last) != 3 || last[1] != "--help" || last[2] != "all" {
		t.Errorf("ps extra probe = %v", last)
	}
}

func TestCaptureOutputLongerStreamWins(t *testing.T) {
	res := Capture{Stdout: "short", Stderr: "a much longer help text on stderr"}
	output, source := res.Output()
	if source != report.SourceStderr {
		t.Errorf("source = %q, want stderr", source)
	}
	if !strings.Contains(output, "longer") {
		t.Errorf("output = %q", output)
	}

	res = Capture{Stdout: "the actual help", Stderr: ""}
	if _, source := res.Output(); source != report.SourceStdout {
		t.Errorf("source = %q, want stdout", source)
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 500)
	if got := preview(long); len(got) != previewLen {
		t.Errorf("preview len = %d, want %d", len(got), previewLen)
	}
	if got := preview("  short  "); got != "short" {
		t.Errorf("preview = %q", got)
	}
}

func TestScrubEnv(t *testing.T) {
	env := scrubEnv([]string{"TERM=xterm-256color", "PAGER=less", "HOME=/home/u", "PATH=/usr/bin"})
	got := map[string]string{}
	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		got[key] = value
	}
	if got["TERM"] != "dumb" {
		t.Errorf("TERM = %q", got["TERM"])
	}
	if got["PAGER"] != "cat" {
		t.Errorf("PAGER = %q", got["PAGER"])
	}
	if got["GIT_PAGER"] != "cat" {
		t.Errorf("GIT_PAGER = %q", got["GIT_PAGER"])
	}
	if got["NO_COLOR"] != "1" {
		t.Errorf("NO_COLOR = %q", got["NO_COLOR"])
	}
	if got["HOME"] != "/home/u" || got["PATH"] != "/usr/bin" {
		t.Errorf("unrelated variables not preserved: %v", got)
	}
}

func TestRunShellRejectsMetacharacters(t *testing.T) {
	p := New()
	for _, bad := range []string{"git; rm -rf /", "a|b", "x$(y)", "a b", "`ls`", "a&&b"} {
		res := p.RunShell(context.Background(), bad, "--help")
		if res.Err == "" {
			t.Errorf("shell fallback accepted %q", bad)
		}
	}
}

func TestRunCapturesExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell required")
	}
	p := New()
	res := p.Run(context.Background(), []string{"sh", "-c", "echo help on stdout; exit 2"})
	if res.ExitCode == nil || *res.ExitCode != 2 {
		t.Fatalf("exit code = %v", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "help on stdout") {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell required")
	}
	p := &Prober{Timeout: 200 * time.Millisecond}
	start := time.Now()
	res := p.Run(context.Background(), []string{"sleep", "5"})
	if !res.TimedOut {
		t.Fatalf("capture = %+v, want timeout", res)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not bound the probe")
	}
}

func TestIsHelpOutput(t *testing.T) {
	help := `Usage: tool [OPTIONS]

Options:
  -h, --help     show help
  -v, --verbose  more output
  -o FILE        write to FILE
`
	if !IsHelpOutput(help) {
		t.Error("help screen not recognized")
	}
	if IsHelpOutput("tool: error: something broke\n") {
		t.Error("error output recognized as help")
	}
	if IsHelpOutput("ok") {
		t.Error("trivial output recognized as help")
	}
}

func TestClassifyRejection(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"display", "Error: cannot open display\n", RejectEnvironmentBlocked},
		{"permission", "bash: /usr/sbin/tool: Permission denied\n", RejectEnvironmentBlocked},
		{"missing", "tool: command not found\n", RejectNotInstalled},
		{"bad flag", "tool: unknown option '--help'\nTry -?\n", RejectOptionError},
		{"other", "tool output without structure\n", RejectNotHelpOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRejection(Capture{Stderr: tt.stderr})
			if got != tt.want {
				t.Errorf("ClassifyRejection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveProbeFailure(t *testing.T) {
	one := 1
	blocked := report.ProbeAttempt{RejectionReason: RejectEnvironmentBlocked, ExitCode: &one, OutputLen: 40}
	timedOut := report.ProbeAttempt{TimedOut: true}
	notInstalled := report.ProbeAttempt{RejectionReason: RejectNotInstalled, ExitCode: &one, OutputLen: 40}
	rejected := report.ProbeAttempt{RejectionReason: RejectNotHelpOutput, ExitCode: &one, OutputLen: 40}
	spawnFailed := report.ProbeAttempt{Error: "spawn failed: no such file or directory"}

	tests := []struct {
		name     string
		attempts []report.ProbeAttempt
		want     report.FailureCode
	}{
		{"all spawn failures", []report.ProbeAttempt{spawnFailed, spawnFailed}, report.FailureNotInstalled},
		{"all timeouts", []report.ProbeAttempt{timedOut, timedOut}, report.FailureTimeout},
		{"one timeout among rejections", []report.ProbeAttempt{timedOut, rejected, rejected}, report.FailureTimeout},
		{"timeout beats blocked", []report.ProbeAttempt{timedOut, blocked}, report.FailureTimeout},
		{"blocked beats not installed", []report.ProbeAttempt{blocked, notInstalled, notInstalled}, report.FailurePermissionBlocked},
		{"repeated not installed", []report.ProbeAttempt{rejected, notInstalled, notInstalled}, report.FailureNotInstalled},
		{"single not installed stays rejection", []report.ProbeAttempt{rejected, notInstalled}, report.FailureNotHelpOutput},
		{"plain rejection", []report.ProbeAttempt{rejected}, report.FailureNotHelpOutput},
		{"no attempts", nil, report.FailureNotHelpOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, detail := DeriveProbeFailure(tt.attempts)
			if code != tt.want {
				t.Errorf("code = %q, want %q", code, tt.want)
			}
			if detail == "" {
				t.Error("detail empty")
			}
		})
	}
}
