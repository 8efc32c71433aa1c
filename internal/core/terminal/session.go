package terminal

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
)

var ErrSessionClosed = errors.New("session is not active")

// Session owns one shell process. Only the session writes to or kills it.
type Session struct {
	id        string
	shell     Shell
	cmd       *exec.Cmd
	createdAt time.Time
	logger    logger.Logger

	writeMu sync.Mutex
	stdin   io.WriteCloser
	readers []*os.File

	mu           sync.RWMutex
	log          []domain.LogEntry
	active       bool
	hint         string
	lastActivity time.Time

	// done is closed once the process has exited and all output was delivered.
	done chan struct{}
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// append records an entry and returns its index in the log.
func (s *Session) append(kind domain.LogKind, text string, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, domain.LogEntry{Kind: kind, Text: text, Timestamp: at})
	s.lastActivity = at
	return len(s.log) - 1
}

func (s *Session) retract(idx int) {
	s.mu.Lock()
	s.log = slices.Delete(s.log, idx, idx+1)
	s.mu.Unlock()
}

func (s *Session) history() []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) setHint(dir string) {
	s.mu.Lock()
	s.hint = dir
	s.mu.Unlock()
}

func (s *Session) currentHint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hint
}

// deactivate flips active to false and reports whether this call did it.
func (s *Session) deactivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	s.active = false
	return true
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

func (s *Session) info() domain.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pid := 0
	if s.cmd.Process != nil {
		pid = s.cmd.Process.Pid
	}

	return domain.SessionInfo{
		ID:                   s.id,
		PID:                  pid,
		Active:               s.active,
		WorkingDirectoryHint: s.hint,
		CreatedAt:            s.createdAt,
		LastActivity:         s.lastActivity,
		Entries:              len(s.log),
	}
}

// send logs line and writes it to stdin under one lock, so entries and writes
// from concurrent callers keep the same order. The entry is logged before the
// write so it precedes any output the line produces, and is taken back if the
// write fails.
func (s *Session) send(kind domain.LogKind, line string, at time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.Active() {
		return ErrSessionClosed
	}

	idx := s.append(kind, line, at)
	if _, err := io.WriteString(s.stdin, line+"\n"); err != nil {
		s.retract(idx)
		return err
	}
	return nil
}

func (s *Session) terminate() error {
	s.writeMu.Lock()
	_ = s.stdin.Close()
	s.writeMu.Unlock()

	return killProcessGroup(s.cmd)
}

func (s *Session) closeReaders() {
	for _, f := range s.readers {
		_ = f.Close()
	}
}
