// Package rest
package rest

import (
	"net/http"

	"lcars-core/internal/config"
	"lcars-core/internal/transport/rest/middleware"
	"lcars-core/internal/transport/websocket"
)

type RouterDeps struct {
	Ws  *websocket.Handler
	IPC *IPCHandler
}

func NewRouter(cfg *config.Config, deps *RouterDeps) http.Handler {
	mux := http.NewServeMux()

	globalMw := middleware.New()
	globalMw.Use(middleware.CORS(cfg))

	ipcStack := middleware.New()
	ipcStack.Use(middleware.JWT(cfg))

	// HEALTH
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// WEBSOCKET
	if deps.Ws != nil {
		mux.HandleFunc("GET /ws", deps.Ws.Serve)
	}

	// IPC
	if deps.IPC != nil {
		mux.Handle("POST /ipc/{channel}", ipcStack.Then(deps.IPC.Invoke))
	}

	return globalMw.Apply(mux)
}
