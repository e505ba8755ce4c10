package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"lyricmirror/internal/dto"
	"lyricmirror/internal/geometry"
	"lyricmirror/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 2 * time.Second
	// viewport reports are tiny JSON objects
	maxViewerMessage = 512
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewerHub is the part of the display hub the viewer handler needs.
type ViewerHub interface {
	Register(client *websocket.Conn)
	Unregister(client *websocket.Conn)
	SetViewport(size geometry.Size)
}

// ViewWebsocketHandler registers kiosk pages with the hub and reads the
// viewport sizes they report.
func ViewWebsocketHandler(hub ViewerHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		connection.SetReadLimit(maxViewerMessage)
		connection.SetReadDeadline(time.Now().Add(pongWait))
		connection.SetPongHandler(func(string) error {
			connection.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		hub.Register(connection)
		defer hub.Unregister(connection)

		stop := make(chan struct{})
		defer close(stop)
		go ping(connection, stop)

		for {
			_, data, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
			connection.SetReadDeadline(time.Now().Add(pongWait))

			var msg dto.ViewportMessage
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != dto.TypeViewport {
				continue
			}
			hub.SetViewport(geometry.Size{Width: msg.Width, Height: msg.Height})
		}
	}
}

// ping keeps idle viewer connections alive. Control frames may be written
// concurrently with the hub's data writes.
func ping(connection *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
