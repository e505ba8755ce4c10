package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"lyricmirror/internal/dto"
	"lyricmirror/internal/geometry"
	"lyricmirror/internal/logger"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single write so one stuck viewer cannot stall the hub.
const writeWait = 2 * time.Second

// HubService fans display messages out to every connected viewer and keeps
// the viewport size the kiosk page last reported.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex

	lastStatus []byte
	viewport   geometry.Size
	stateMu    sync.RWMutex

	logger *logger.Logger
}

// NewHubService creates an idle hub; call Run to start delivering.
func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run delivers messages until ctx is done, then closes every client.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

			// late joiners still need to know whether models are loading
			h.stateMu.RLock()
			status := h.lastStatus
			h.stateMu.RUnlock()
			if status != nil {
				h.write(client, status)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.RUnlock()

			for _, client := range clients {
				h.write(client, message)
			}
		}
	}
}

// write sends one message, dropping the client on failure. Run goroutine only.
func (h *HubService) write(client *websocket.Conn, message []byte) {
	client.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Warning("Error sending message to viewer: %v", err)
		h.mutex.Lock()
		delete(h.clients, client)
		h.mutex.Unlock()
		client.Close()
	}
}

// Register adds a viewer. After Run has stopped the connection is closed instead.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a raw message for all viewers.
func (h *HubService) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// BroadcastFrame sends a camera frame. Frames are dropped rather than queued
// when viewers fall behind.
func (h *HubService) BroadcastFrame(frame dto.Frame) {
	if h.GetClientCount() == 0 {
		return
	}

	msg, err := json.Marshal(dto.FrameMessage{
		Type:   dto.TypeFrame,
		Image:  base64.StdEncoding.EncodeToString(frame.Data),
		Width:  frame.Width,
		Height: frame.Height,
	})
	if err != nil {
		h.logger.Error("Failed to encode frame message: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
	}
}

// PublishFaces sends the overlay list.
func (h *HubService) PublishFaces(msg dto.FacesMessage) {
	if data := h.encode(msg); data != nil {
		h.Broadcast(data)
	}
}

// PublishStatus sends the driver status and keeps it for viewers that connect later.
func (h *HubService) PublishStatus(msg dto.StatusMessage) {
	data := h.encode(msg)
	if data == nil {
		return
	}
	h.stateMu.Lock()
	h.lastStatus = data
	h.stateMu.Unlock()

	h.Broadcast(data)
}

func (h *HubService) encode(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode message: %v", err)
		return nil
	}
	return data
}

// SetViewport records the rendered video size reported by the page.
// Non-positive sizes are ignored.
func (h *HubService) SetViewport(size geometry.Size) {
	if !size.Valid() {
		return
	}
	h.stateMu.Lock()
	h.viewport = size
	h.stateMu.Unlock()
}

// Viewport returns the last reported size, zero until a page reports one.
func (h *HubService) Viewport() geometry.Size {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return h.viewport
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
