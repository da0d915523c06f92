package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"echonest/models"
	"echonest/session"

	"github.com/gorilla/websocket"
)

// Manager fans the live feed out to every connected viewer. Each snapshot is
// a full replacement of the ordered post list; clients never receive diffs.
// It also keeps the latest snapshot around, both to replay to newly connected
// clients and to serve as the like toggle's locally-held membership view.
type Manager struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	latest []byte
	posts  map[string]models.Post
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		posts:      make(map[string]models.Post),
	}
}

func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			latest := m.latest
			m.mu.Unlock()
			log.Printf("WebSocket client registered. Total clients: %d", m.ConnectedClients())

			// Replay the current feed so a fresh viewer is not empty
			// until the next change.
			if latest != nil {
				select {
				case client.send <- latest:
				default:
				}
			}

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			m.mu.Unlock()
			log.Printf("WebSocket client unregistered. Total clients: %d", m.ConnectedClients())

		case message := <-m.broadcast:
			m.mu.Lock()
			for client := range m.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(m.clients, client)
				}
			}
			m.mu.Unlock()
		}
	}
}

// BroadcastSnapshot replaces the cached feed and pushes the new snapshot to
// every connected client.
func (m *Manager) BroadcastSnapshot(posts []models.Post) {
	frame := map[string]interface{}{
		"type":    "feed_snapshot",
		"payload": posts,
	}

	msg, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Error marshaling feed snapshot: %v", err)
		return
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID.Hex()] = p
	}

	m.mu.Lock()
	m.latest = msg
	m.posts = byID
	m.mu.Unlock()

	m.broadcast <- msg
}

// BroadcastFeedError tells every viewer the feed is in an error state. The
// cached snapshot is kept; it simply stops updating until a new subscription
// is established.
func (m *Manager) BroadcastFeedError(err error) {
	frame := map[string]interface{}{
		"type": "feed_error",
		"payload": map[string]interface{}{
			"error": err.Error(),
			"time":  time.Now().Unix(),
		},
	}

	msg, merr := json.Marshal(frame)
	if merr != nil {
		log.Printf("Error marshaling feed error: %v", merr)
		return
	}

	m.broadcast <- msg
}

// Post returns a post from the latest delivered snapshot.
func (m *Manager) Post(id string) (models.Post, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	post, ok := m.posts[id]
	return post, ok
}

func (m *Manager) ConnectedClients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades the connection and starts the client pumps. The feed is
// public: a token is optional, but a token that fails validation is rejected.
func Handler(manager *Manager, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ""
		if token := r.URL.Query().Get("token"); token != "" {
			sess, err := session.Parse(jwtSecret, token)
			if err != nil {
				log.Printf("WebSocket connection rejected: %v", err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			userID = sess.UserID
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:    conn,
			userID:  userID,
			send:    make(chan []byte, 256),
			manager: manager,
		}

		manager.register <- client

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}

		if data["type"] == "ping" {
			c.sendPong()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendPong() {
	msg, err := json.Marshal(map[string]interface{}{
		"type": "pong",
		"payload": map[string]interface{}{
			"time": time.Now().Unix(),
		},
	})
	if err != nil {
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}
