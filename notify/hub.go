// Package notify pushes loan events to the websocket connections of the
// teams involved. Every team has its own room; a team may hold several
// connections (tabs, devices) at once.
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/loan-market/loans"
	"github.com/Dosada05/loan-market/logger"
)

const sendBufferSize = 256

// Message is the frame written to clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	TeamID  int         `json:"team_id"`
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[int]map[*Client]bool
	mu         sync.RWMutex
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[int]map[*Client]bool),
		log:        log.With("component", "notify_hub"),
	}
}

// Run owns room membership until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.teamID]; !ok {
				h.rooms[client.teamID] = make(map[*Client]bool)
			}
			h.rooms[client.teamID][client] = true
			h.log.Debug("client joined team room", "team_id", client.teamID, "clients", len(h.rooms[client.teamID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, room := range h.rooms {
				for client := range room {
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
			h.log.Info("notification hub stopped")
			return
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	room, ok := h.rooms[client.teamID]
	if !ok || !room[client] {
		return
	}
	close(client.send)
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.teamID)
	}
	h.log.Debug("client left team room", "team_id", client.teamID, "clients", len(room))
}

// Serve attaches an upgraded connection to the room of teamID and starts its pumps.
func (h *Hub) Serve(conn *websocket.Conn, teamID int) {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		teamID: teamID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Publish delivers a loan event to the team that did not perform the transition.
func (h *Hub) Publish(event loans.Event) {
	teamID := event.RecipientID()
	h.BroadcastToTeam(teamID, Message{
		Type:    string(event.Type),
		Payload: event,
		TeamID:  teamID,
	})
}

// BroadcastToTeam never blocks: clients whose buffer is full miss the message.
func (h *Hub) BroadcastToTeam(teamID int, message interface{}) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal notification", "team_id", teamID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[teamID] {
		select {
		case client.send <- messageBytes:
		default:
			h.log.Warn("client send buffer full, dropping notification", "team_id", teamID)
		}
	}
}

// ClientCount reports how many connections a team currently holds.
func (h *Hub) ClientCount(teamID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[teamID])
}
