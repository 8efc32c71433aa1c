package command

import (
	"context"
	"time"
)

// Runner runs a program to completion and returns its stdout.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// Exec is the Runner backed by os/exec. Every call carries Timeout.
type Exec struct {
	Timeout time.Duration
}

func NewExec(timeout time.Duration) *Exec {
	return &Exec{Timeout: timeout}
}

func (e *Exec) Output(ctx context.Context, name string, args ...string) (string, error) {
	return NewCommand("", name, args...).WithTimeout(e.Timeout).Run(ctx)
}

// PowerShell runs a script through powershell.exe without profile or prompt.
func PowerShell(ctx context.Context, r Runner, script string) (string, error) {
	return r.Output(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script)
}
