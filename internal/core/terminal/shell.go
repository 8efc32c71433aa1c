package terminal

import (
	"os"
	"runtime"
	"strings"
)

type shellKind int

const (
	shellPosix shellKind = iota
	shellPowerShell
	shellCmd
)

// Shell is the interactive program spawned for every session.
type Shell struct {
	Path string
	Args []string
}

// ParseShell splits a configured command line. An empty value selects the
// platform default.
func ParseShell(raw string) Shell {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return DefaultShell()
	}
	return Shell{Path: fields[0], Args: fields[1:]}
}

func DefaultShell() Shell {
	if runtime.GOOS == "windows" {
		return Shell{Path: "powershell.exe", Args: []string{"-NoLogo", "-NoExit", "-Command", "-"}}
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return Shell{Path: sh}
	}
	return Shell{Path: "/bin/sh"}
}

func (s Shell) kind() shellKind {
	base := strings.ToLower(s.Path)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "powershell", "pwsh":
		return shellPowerShell
	case "cmd":
		return shellCmd
	}
	return shellPosix
}

// pwdCommand prints the working directory in a form the output heuristics
// recognize.
func (s Shell) pwdCommand() string {
	switch s.kind() {
	case shellPowerShell:
		return "(Get-Location).Path"
	case shellCmd:
		return "cd"
	}
	return "pwd"
}
