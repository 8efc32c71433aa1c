// Package terminal runs long-lived interactive shells and streams their output
// as push events.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"github.com/google/uuid"
)

const (
	DefaultInitDelay   = 500 * time.Millisecond
	DefaultIdleTimeout = 30 * time.Minute

	chunkSize  = 4096
	drainGrace = time.Second
	closeWait  = 3 * time.Second
)

type Options struct {
	Shell   Shell
	WorkDir string
	// InitDelay is how long to wait before probing the starting directory.
	InitDelay time.Duration
	// IdleTimeout of zero disables idle reaping.
	IdleTimeout time.Duration
	Now         func() time.Time
}

type Manager struct {
	opts Options
	home string
	pub  domain.Publisher
	log  logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(log logger.Logger, pub domain.Publisher, opts Options) *Manager {
	if opts.Shell.Path == "" {
		opts.Shell = DefaultShell()
	}
	if opts.InitDelay <= 0 {
		opts.InitDelay = DefaultInitDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if pub == nil {
		pub = domain.NopPublisher{}
	}

	home, _ := os.UserHomeDir()

	return &Manager{
		opts:     opts,
		home:     home,
		pub:      pub,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

type chunk struct {
	kind domain.LogKind
	text string
}

// CreateSession spawns a shell and registers it. The id stays valid until the
// session is closed or reaped.
func (m *Manager) CreateSession(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cmd := exec.Command(m.opts.Shell.Path, m.opts.Shell.Args...)
	cmd.Dir = m.opts.WorkDir
	cmd.Env = append(os.Environ(), "TERM=dumb")
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("stdin pipe: %w", err)
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		outR.Close()
		outW.Close()
		return "", fmt.Errorf("stderr pipe: %w", err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		stdin.Close()
		for _, f := range []*os.File{outR, outW, errR, errW} {
			f.Close()
		}
		return "", fmt.Errorf("start %s: %w", m.opts.Shell.Path, err)
	}

	// The child holds its own copies now.
	outW.Close()
	errW.Close()

	now := m.opts.Now()
	id := uuid.NewString()
	s := &Session{
		id:           id,
		shell:        m.opts.Shell,
		logger:       m.log.With("session_id", id),
		cmd:          cmd,
		createdAt:    now,
		stdin:        stdin,
		readers:      []*os.File{outR, errR},
		active:       true,
		lastActivity: now,
		done:         make(chan struct{}),
	}
	s.append(domain.LogKindSystem, fmt.Sprintf("session started: %s (pid %d)", m.opts.Shell.Path, cmd.Process.Pid), now)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	chunks := make(chan chunk, 64)
	drained := make(chan struct{})

	var readers sync.WaitGroup
	readers.Add(2)
	go pump(outR, domain.LogKindOutput, chunks, &readers)
	go pump(errR, domain.LogKindError, chunks, &readers)
	go func() {
		readers.Wait()
		close(chunks)
		close(drained)
	}()

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()

		// Background jobs of the shell may keep the pipes open.
		select {
		case <-drained:
		case <-time.After(drainGrace):
			s.closeReaders()
		}
	}()

	go m.dispatch(s, chunks, exited)
	go m.probeDirectory(s)

	s.logger.Info("terminal: session created", "pid", cmd.Process.Pid, "shell", m.opts.Shell.Path)

	return s.id, nil
}

func pump(r io.Reader, kind domain.LogKind, out chan<- chunk, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out <- chunk{kind: kind, text: string(buf[:n])}
		}
		if err != nil {
			return
		}
	}
}

// dispatch is the only goroutine that delivers output for s, which keeps the
// log and the pushed events in emission order.
func (m *Manager) dispatch(s *Session, chunks <-chan chunk, exited <-chan error) {
	for c := range chunks {
		s.append(c.kind, c.text, m.opts.Now())

		if c.kind == domain.LogKindOutput {
			if dir, ok := detectDirectory(c.text); ok {
				s.setHint(dir)
			}
		}

		m.pub.Publish(domain.EventTerminalOutput, domain.TerminalOutputEvent{
			SessionID: s.id,
			Type:      c.kind,
			Content:   c.text,
		})
	}

	status := exitStatus(<-exited)
	s.append(domain.LogKindExit, status, m.opts.Now())
	s.deactivate()

	m.pub.Publish(domain.EventTerminalOutput, domain.TerminalOutputEvent{
		SessionID: s.id,
		Type:      domain.LogKindExit,
		Content:   status,
	})
	close(s.done)

	s.logger.Info("terminal: session exited", "status", status)
}

func exitStatus(err error) string {
	if err == nil {
		return "process exited with code 0"
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return fmt.Sprintf("process exited with code %d", code)
		}
	}
	return "process exited: " + err.Error()
}

func (m *Manager) probeDirectory(s *Session) {
	select {
	case <-time.After(m.opts.InitDelay):
	case <-s.done:
		return
	}

	if err := s.send(domain.LogKindSystem, s.shell.pwdCommand(), m.opts.Now()); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.logger.Warn("terminal: directory probe failed", "error", err)
	}
}

func (m *Manager) get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	return s, ok
}

// ExecuteCommand writes text to the session's stdin. Output arrives later as
// terminal-output events. It reports false for unknown or inactive sessions.
func (m *Manager) ExecuteCommand(id, text string) bool {
	s, ok := m.get(id)
	if !ok {
		return false
	}

	if err := s.send(domain.LogKindCommand, text, m.opts.Now()); err != nil {
		if !errors.Is(err, ErrSessionClosed) {
			s.logger.Warn("terminal: write failed", "error", err)
		}
		return false
	}

	if dir, ok := resolveCd(s.currentHint(), m.home, text); ok {
		s.setHint(dir)
	}

	return true
}

// History returns a copy of the session log, or an empty slice for unknown ids.
func (m *Manager) History(id string) []domain.LogEntry {
	s, ok := m.get(id)
	if !ok {
		return []domain.LogEntry{}
	}
	return s.history()
}

// List returns every registered session, oldest first.
func (m *Manager) List() []domain.SessionInfo {
	m.mu.RLock()
	out := make([]domain.SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info())
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.SessionInfo) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// CloseSession kills the shell and forgets the session. It reports true only
// when a live session was closed.
func (m *Manager) CloseSession(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	return m.close(s, "session closed")
}

func (m *Manager) close(s *Session, reason string) bool {
	if !s.deactivate() {
		return false
	}
	s.append(domain.LogKindSystem, reason, m.opts.Now())

	if err := s.terminate(); err != nil {
		s.logger.Warn("terminal: kill failed", "error", err)
	}

	select {
	case <-s.done:
	case <-time.After(closeWait):
		s.closeReaders()
		s.logger.Warn("terminal: session did not exit in time")
	}

	s.logger.Info("terminal: session closed", "reason", reason)
	return true
}

// ReapIdle closes sessions idle for longer than the idle timeout and drops
// sessions whose shell already exited. It returns how many were removed.
func (m *Manager) ReapIdle(now time.Time) int {
	m.mu.Lock()
	var victims []*Session
	for id, s := range m.sessions {
		expired := m.opts.IdleTimeout > 0 && now.Sub(s.idleSince()) >= m.opts.IdleTimeout
		if expired || !s.Active() {
			victims = append(victims, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	m.closeAll(victims, "idle timeout")
	return len(victims)
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	victims := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		victims = append(victims, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.closeAll(victims, "shutdown")
}

func (m *Manager) closeAll(sessions []*Session, reason string) {
	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.close(s, reason)
		}()
	}
	wg.Wait()
}
