package domain

import "time"

type LogKind string

const (
	LogKindOutput  LogKind = "output"
	LogKindError   LogKind = "error"
	LogKindCommand LogKind = "command"
	LogKindSystem  LogKind = "system"
	LogKindExit    LogKind = "exit"
)

type LogEntry struct {
	Kind      LogKind   `json:"type"`
	Text      string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TerminalOutputEvent is pushed on the terminal-output channel. Type is one
// of output, error or exit.
type TerminalOutputEvent struct {
	SessionID string  `json:"sessionId"`
	Type      LogKind `json:"type"`
	Content   string  `json:"content"`
}

type SessionInfo struct {
	ID                   string    `json:"id"`
	PID                  int       `json:"pid"`
	Active               bool      `json:"isActive"`
	WorkingDirectoryHint string    `json:"workingDirectory"`
	CreatedAt            time.Time `json:"createdAt"`
	LastActivity         time.Time `json:"lastActivity"`
	Entries              int       `json:"entries"`
}
