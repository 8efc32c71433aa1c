package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lcars-core/internal/logger"
	"lcars-core/internal/transport/ipc"
	"lcars-core/internal/transport/websocket"
)

const maxBodySize = 1 << 20

// IPCHandler exposes the dispatcher as POST /ipc/{channel} with a JSON array
// of positional arguments as body.
type IPCHandler struct {
	invoker websocket.Invoker
	log     logger.Logger
}

func NewIPCHandler(invoker websocket.Invoker, log logger.Logger) *IPCHandler {
	return &IPCHandler{invoker: invoker, log: log}
}

func (h *IPCHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")

	var args []json.RawMessage
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		JSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			JSONError(w, http.StatusBadRequest, "request body must be a JSON array of arguments")
			return
		}
	}

	result, err := h.invoker.Invoke(r.Context(), channel, args)
	if err != nil {
		switch {
		case errors.Is(err, ipc.ErrUnknownChannel):
			JSONError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ipc.ErrInvalidArgs):
			JSONError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error("ipc: invoke failed", "channel", channel, "error", err)
			JSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{Data: result})
}
