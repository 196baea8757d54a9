// Package discover finds extraction targets and runs extractions over
// them concurrently.
//
// Targets come from three places: an explicit command list, the built
// in allowlist of common tools, or a PATH scan. Extractions run on a
// bounded worker pool and fold into a deterministic, sorted bundle.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultAllowlist is the curated set of tools worth probing on a
// typical development host.
var DefaultAllowlist = []string{
	"apt", "aws", "bat", "brew", "cargo", "curl", "docker", "dpkg",
	"fd", "ffmpeg", "find", "fzf", "gcc", "gh", "git", "go", "gpg",
	"grep", "gzip", "helm", "htop", "jq", "kubectl", "less", "ls",
	"make", "man", "mv", "node", "npm", "nvim", "pip", "pnpm",
	"podman", "ps", "python3", "rg", "rsync", "rustc", "sed", "ssh",
	"systemctl", "tar", "terraform", "tmux", "uv", "vim", "wget",
	"yarn", "zip",
}

// ScanOptions configure a PATH scan.
type ScanOptions struct {
	// Paths to scan; $PATH entries when empty
	Paths []string
	// Exclude drops command names (exact match)
	Exclude []string
	// Limit caps how many commands the scan returns; 0 is unlimited
	Limit int
}

// ScanPath walks executable directories and returns the deduplicated,
// sorted command names found there.
func ScanPath(options ScanOptions) ([]string, error) {
	paths := options.Paths
	if len(paths) == 0 {
		paths = filepath.SplitList(os.Getenv("PATH"))
	}
	excluded := map[string]bool{}
	for _, name := range options.Exclude {
		excluded[name] = true
	}

	seen := map[string]bool{}
	var commands []string
	for _, dir := range paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			// Missing or unreadable PATH entries are routine.
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if seen[name] || excluded[name] || !plausibleCommandName(name) {
				continue
			}
			info, err := entry.Info()
			if err != nil || !isExecutableFile(info) {
				continue
			}
			seen[name] = true
			commands = append(commands, name)
		}
	}

	sort.Strings(commands)
	if options.Limit > 0 && len(commands) > options.Limit {
		commands = commands[:options.Limit]
	}
	return commands, nil
}

// FilterInstalled keeps the commands that resolve on PATH.
func FilterInstalled(commands []string, lookPath func(string) (string, error)) []string {
	var installed []string
	for _, command := range commands {
		if _, err := lookPath(command); err == nil {
			installed = append(installed, command)
		}
	}
	return installed
}

func isExecutableFile(info fs.FileInfo) bool {
	if info.IsDir() {
		return false
	}
	// Symlinked executables pass through their target mode on Info.
	return info.Mode()&0111 != 0
}

// plausibleCommandName filters scan hits down to names a user would
// actually type.
func plausibleCommandName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	for _, ch := range name {
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' ||
			ch == '-' || ch == '_' || ch == '.' || ch == '+') {
			return false
		}
	}
	return true
}
