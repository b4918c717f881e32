// Package feed serves the session over WebSocket: observer events go out,
// user commands come in.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pomodoro/internal/core/timekeeper"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Controller is the command surface of the session.
type Controller interface {
	Start()
	Pause()
	Resume()
	Stop()
	Reset()
	StartBreak()
	CancelBreak(source string)
	Snapshot() timekeeper.Snapshot
}

// Server fans events out to WebSocket clients and applies their commands.
type Server struct {
	controller Controller
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
	done chan struct{}
	once sync.Once
}

// NewServer creates a feed server for controller.
func NewServer(controller Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		controller: controller,
		logger:     logger.With("component", "feed"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string]*client),
	}
}

// Handler returns the HTTP routes: /ws and /status.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.handleWebSocket)
	mux.HandleFunc("/status", server.handleStatus)
	return mux
}

// ListenAndServe serves on addr until ctx ends.
func (server *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("feed listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve feed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.CloseClients()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown feed: %w", err)
	}
	return nil
}

// Forward broadcasts every event from events until ctx ends or events closes.
func (server *Server) Forward(ctx context.Context, events <-chan timekeeper.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			server.Broadcast(newMessage(TypeEvent, event))
		}
	}
}

// Broadcast queues message for every client. Slow clients miss messages.
func (server *Server) Broadcast(message Message) {
	server.mu.RLock()
	defer server.mu.RUnlock()
	for _, c := range server.clients {
		c.enqueue(message)
	}
}

// ClientCount returns the number of connected clients.
func (server *Server) ClientCount() int {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return len(server.clients)
}

// CloseClients disconnects every client.
func (server *Server) CloseClients() {
	server.mu.Lock()
	clients := server.clients
	server.clients = make(map[string]*client)
	server.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (server *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(server.controller.Snapshot()); err != nil {
		server.logger.Warn("encode status", "error", err)
	}
}

func (server *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := server.upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
	server.mu.Lock()
	server.clients[c.id] = c
	server.mu.Unlock()
	server.logger.Info("client connected", "client", c.id)

	welcome := newMessage(TypeWelcome, server.controller.Snapshot())
	welcome.ClientID = c.id
	c.enqueue(welcome)

	go server.writePump(c)
	server.readPump(c)

	server.mu.Lock()
	delete(server.clients, c.id)
	server.mu.Unlock()
	c.close()
	server.logger.Info("client disconnected", "client", c.id)
}

func (server *Server) readPump(c *client) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var command Command
		if err := c.conn.ReadJSON(&command); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				server.logger.Warn("websocket read", "client", c.id, "error", err)
			}
			return
		}
		server.logger.Debug("command received", "client", c.id, "type", command.Type)
		if reply, ok := server.handleCommand(command); ok {
			reply.ClientID = c.id
			c.enqueue(reply)
		}
	}
}

func (server *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleCommand applies one command and returns the direct reply, if any.
// Commands that change the session reply through the event broadcast.
func (server *Server) handleCommand(command Command) (Message, bool) {
	switch command.Type {
	case TypeStart:
		server.controller.Start()
	case TypePause:
		server.controller.Pause()
	case TypeResume:
		server.controller.Resume()
	case TypeStop:
		server.controller.Stop()
	case TypeReset:
		server.controller.Reset()
	case TypeStartBreak:
		server.controller.StartBreak()
	case TypeCancelBreak:
		payload := CancelBreakPayload{Source: "feed"}
		if len(command.Payload) > 0 {
			if err := json.Unmarshal(command.Payload, &payload); err != nil {
				return newMessage(TypeError, ErrorPayload{Message: fmt.Sprintf("decode cancel payload: %v", err)}), true
			}
		}
		if payload.Source == "" {
			payload.Source = "feed"
		}
		server.controller.CancelBreak(payload.Source)
	case TypeStatus:
		return newMessage(TypeStatus, server.controller.Snapshot()), true
	case TypePing:
		return newMessage(TypePong, nil), true
	default:
		return newMessage(TypeError, ErrorPayload{Message: fmt.Sprintf("unknown message type %q", command.Type)}), true
	}
	return Message{}, false
}

func (c *client) enqueue(message Message) {
	select {
	case <-c.done:
	case c.send <- message:
	default:
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}
