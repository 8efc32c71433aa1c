package domain

import "encoding/json"

// Request/response channels.
const (
	ChannelSystemInfo       = "get-system-info"
	ChannelSystemInfoLight  = "get-system-info-light"
	ChannelGPUPerformance   = "get-gpu-performance"
	ChannelNetworkInfo      = "get-network-info"
	ChannelWifiNetworks     = "get-wifi-networks"
	ChannelConnectivity     = "check-internet-connectivity"
	ChannelTelemetryHistory = "get-telemetry-history"
	ChannelCreateSession    = "create-terminal-session"
	ChannelExecuteCommand   = "execute-terminal-command"
	ChannelTerminalHistory  = "get-terminal-history"
	ChannelCloseSession     = "close-terminal-session"
	ChannelListSessions     = "list-terminal-sessions"
	ChannelReadDirectory    = "read-directory"
	ChannelCreateDirectory  = "create-directory"
	ChannelCreateFile       = "create-file"
	ChannelDeleteFile       = "delete-file"
	ChannelDeleteDirectory  = "delete-directory"
	ChannelRenameItem       = "rename-item"
	ChannelItemProperties   = "get-item-properties"
	ChannelOpenFile         = "open-file"
	ChannelWatchDirectory   = "watch-directory"
	ChannelUnwatchDirectory = "unwatch-directory"
	ChannelExitApp          = "exit-app"
)

// Push channels.
const (
	EventTerminalOutput   = "terminal-output"
	EventDirectoryChanged = "directory-changed"
	EventTelemetryUpdated = "telemetry-updated"
)

// Websocket message types.
const (
	WsInvoke      = "invoke"
	WsReply       = "reply"
	WsEvent       = "event"
	WsSubscribe   = "subscribe"
	WsUnsubscribe = "unsubscribe"
)

type WsClientMessage struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id,omitempty"`
	Channel string            `json:"channel,omitempty"`
	Args    []json.RawMessage `json:"args,omitempty"`
}

type WsReplyMessage struct {
	Type    string `json:"type"`
	ID      int64  `json:"id"`
	Channel string `json:"channel"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

type WsServerEvent struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Payload any    `json:"payload,omitempty"`
}

// Result is the uniform {success, ...} envelope of terminal and filesystem
// channels. Extra fields are flattened next to success.
type Result map[string]any

func OK(fields ...any) Result {
	r := Result{"success": true}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			r[key] = fields[i+1]
		}
	}
	return r
}

func Fail(err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{"success": false, "error": msg}
}

// Publisher delivers push events to every listener of a channel.
type Publisher interface {
	Publish(channel string, payload any)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) {}
