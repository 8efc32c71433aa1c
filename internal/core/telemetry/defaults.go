package telemetry

import (
	"time"

	"lcars-core/internal/core/command"
	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
)

// DefaultSources wires the production fallback chains:
// library -> script -> baseline for static fields, library -> procfs for
// dynamic fields, nvidia-smi -> WMI -> DRM for graphics.
func DefaultSources(runner command.Runner, log logger.Logger, opts Options) Options {
	battery := NewBatteryReader(runner)
	displays := NewDisplayReader(runner)
	proc := NewProcSource()

	opts.Static = []Source[domain.StaticInfo]{
		NewLibraryStatic(),
		NewScriptStatic(runner),
	}
	opts.Dynamic = []Source[domain.DynamicSnapshot]{
		NewLibraryDynamic(battery, proc, log),
		proc,
	}
	opts.Graphics = []Source[domain.GraphicsInfo]{
		NewNvidiaSource(runner, displays),
		NewWMIGraphicsSource(runner),
		NewDRMSource(displays),
	}

	return opts
}

// NewDefaultService builds a Service over DefaultSources. Every shell-out is
// bounded by scriptTimeout and every attempt by attemptTimeout.
func NewDefaultService(log logger.Logger, staticTTL, attemptTimeout, scriptTimeout time.Duration) *Service {
	runner := command.NewExec(scriptTimeout)
	opts := DefaultSources(runner, log, Options{
		StaticTTL:      staticTTL,
		AttemptTimeout: attemptTimeout,
	})
	return NewService(log, opts)
}
